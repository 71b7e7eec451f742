package video

import (
	"context"

	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
)

// Repository defines the storage contract for video metadata.
type Repository interface {
	Get(ctx context.Context, id string) (domvideo.Video, error)
	List(ctx context.Context) ([]domvideo.Video, error)
	Delete(ctx context.Context, id string) error
}

// FrameRemover drops all frames of a video from the index.
type FrameRemover interface {
	DeleteVideo(ctx context.Context, videoID string) (int, error)
}
