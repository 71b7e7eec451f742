package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	dombatch "github.com/kailas-cloud/vidsearch/internal/domain/batch"
	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
	"github.com/kailas-cloud/vidsearch/internal/logger"
)

// MaxBatchSize is the default maximum number of frames per video ingest.
const MaxBatchSize = 10000

// Frame is one extracted frame with its precomputed image embedding.
type Frame struct {
	ID          string // defaults to <video_id>_frame_<NNNNNN>
	Number      int
	Timestamp   float64
	StoragePath string
	Vector      []float32
}

// Video describes a decoded video and its frames.
type Video struct {
	ID       string // generated when empty
	Filename string
	Path     string
	Meta     domvideo.Meta
	Frames   []Frame
}

// Service indexes videos with their frame embeddings.
type Service struct {
	frames       FrameIndex
	videos       VideoWriter
	vectorDim    int
	maxBatchSize int
}

// New creates an ingest service for vectors of vectorDim dimensions.
func New(frames FrameIndex, videos VideoWriter, vectorDim int) *Service {
	return &Service{
		frames:       frames,
		videos:       videos,
		vectorDim:    vectorDim,
		maxBatchSize: MaxBatchSize,
	}
}

// WithMaxBatchSize configures the maximum frames per video.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Ingest validates a video, stores its metadata and appends its frames to the index.
// On index failure the video is rolled back.
func (s *Service) Ingest(ctx context.Context, in Video) (domvideo.Video, error) {
	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	ctx = logger.With(ctx, zap.String("video_id", id))

	vid, err := domvideo.New(id, in.Filename, in.Path, in.Meta)
	if err != nil {
		return domvideo.Video{}, domain.InvalidArgument("%s", err.Error())
	}

	entries, err := s.entries(id, in.Frames)
	if err != nil {
		return domvideo.Video{}, err
	}

	if err := s.videos.Create(ctx, vid); err != nil {
		return domvideo.Video{}, fmt.Errorf("create video: %w", err)
	}

	if err := s.index(ctx, entries); err != nil {
		return domvideo.Video{}, s.rollback(ctx, id, err)
	}

	vid = vid.WithFramesIndexed(len(entries))
	if err := s.videos.Save(ctx, vid); err != nil {
		return domvideo.Video{}, s.rollback(ctx, id, fmt.Errorf("save video: %w", err))
	}

	logger.FromContext(ctx).Info("Video indexed", zap.Int("frames", len(entries)))
	return vid, nil
}

// IngestAll ingests every video of a manifest and reports per-video outcomes.
// A failure does not stop the remaining videos.
func (s *Service) IngestAll(ctx context.Context, items []Video) []dombatch.Result {
	results := make([]dombatch.Result, len(items))
	for i, item := range items {
		vid, err := s.Ingest(ctx, item)
		if err != nil {
			results[i] = dombatch.NewError(item.ID, err)
			continue
		}
		results[i] = dombatch.NewOK(vid.ID(), vid.FramesIndexed())
	}
	return results
}

func (s *Service) entries(videoID string, frames []Frame) ([]domframe.Entry, error) {
	if len(frames) == 0 {
		return nil, domain.InvalidArgument("video has no frames")
	}
	if len(frames) > s.maxBatchSize {
		return nil, domain.InvalidArgument("batch size exceeds %d frames", s.maxBatchSize)
	}

	seen := make(map[string]struct{}, len(frames))
	entries := make([]domframe.Entry, 0, len(frames))
	for i, in := range frames {
		f, err := domframe.New(in.ID, videoID, in.Timestamp, in.Number, in.StoragePath)
		if err != nil {
			return nil, domain.InvalidArgument("frame %d: %s", i, err.Error())
		}
		if _, dup := seen[f.ID()]; dup {
			return nil, domain.InvalidArgument("duplicate frame id %q", f.ID())
		}
		seen[f.ID()] = struct{}{}
		if len(in.Vector) != s.vectorDim {
			return nil, fmt.Errorf("frame %q: %w", f.ID(), domain.NewDimMismatch(s.vectorDim, len(in.Vector)))
		}
		entries = append(entries, domframe.Entry{Frame: f, Vector: domain.Normalize(in.Vector)})
	}
	return entries, nil
}

func (s *Service) index(ctx context.Context, entries []domframe.Entry) error {
	if err := s.frames.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	if err := s.frames.Add(ctx, entries); err != nil {
		return fmt.Errorf("add frames: %w", err)
	}
	return nil
}

func (s *Service) rollback(ctx context.Context, videoID string, cause error) error {
	errs := []error{cause}
	if _, err := s.frames.DeleteVideo(ctx, videoID); err != nil {
		errs = append(errs, fmt.Errorf("rollback frames: %w", err))
	}
	if err := s.videos.Delete(ctx, videoID); err != nil && !errors.Is(err, domain.ErrVideoNotFound) {
		errs = append(errs, fmt.Errorf("rollback video: %w", err))
	}
	logger.FromContext(ctx).Warn("Video ingest rolled back", zap.Error(cause))
	return errors.Join(errs...)
}
