package search

import (
	"context"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	"github.com/kailas-cloud/vidsearch/internal/domain/frame"
)

// Index is the similarity index the ranker reads from.
// Search returns candidates nearest first; it is never asked for more than Stats().Frames.
type Index interface {
	Stats(ctx context.Context) (frame.Stats, error)
	Search(ctx context.Context, vector []float32, topN int) ([]frame.Candidate, error)
}

// VideoCatalog answers scope existence checks.
type VideoCatalog interface {
	Contains(ctx context.Context, id string) (bool, error)
}

// Embedder vectorizes query text into the frame embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
