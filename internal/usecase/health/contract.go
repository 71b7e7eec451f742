package health

import (
	"context"

	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexStater reports the frame index state.
type IndexStater interface {
	Stats(ctx context.Context) (domframe.Stats, error)
}

// VideoLister lists indexed videos.
type VideoLister interface {
	List(ctx context.Context) ([]domvideo.Video, error)
}
