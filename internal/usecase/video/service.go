package video

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
	"github.com/kailas-cloud/vidsearch/internal/logger"
)

// Service handles the indexed video registry.
type Service struct {
	repo   Repository
	frames FrameRemover
}

// New creates a video service.
func New(repo Repository, frames FrameRemover) *Service {
	return &Service{repo: repo, frames: frames}
}

// Get retrieves a video by id.
func (s *Service) Get(ctx context.Context, id string) (domvideo.Video, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return domvideo.Video{}, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// List returns all indexed videos, oldest first.
func (s *Service) List(ctx context.Context) ([]domvideo.Video, error) {
	vids, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return vids, nil
}

// Delete removes a video and all its frames from the index.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return fmt.Errorf("get video: %w", err)
	}
	removed, err := s.frames.DeleteVideo(ctx, id)
	if err != nil {
		return fmt.Errorf("delete frames: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	logger.FromContext(ctx).Info("Video deleted",
		zap.String("video_id", id),
		zap.Int("frames", removed),
	)
	return nil
}
