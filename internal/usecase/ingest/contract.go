package ingest

import (
	"context"

	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
)

// FrameIndex stores frame embeddings.
type FrameIndex interface {
	EnsureIndex(ctx context.Context) error
	Add(ctx context.Context, entries []domframe.Entry) error
	DeleteVideo(ctx context.Context, videoID string) (int, error)
}

// VideoWriter persists video metadata.
type VideoWriter interface {
	Create(ctx context.Context, v domvideo.Video) error
	Save(ctx context.Context, v domvideo.Video) error
	Delete(ctx context.Context, id string) error
}
