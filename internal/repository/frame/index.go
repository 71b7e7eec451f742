package frame

import (
	"fmt"

	"github.com/kailas-cloud/vidsearch/internal/db"
)

// buildIndex describes the frame index: video_id TAG for scoping,
// timestamp NUMERIC, and the embedding as a cosine field (HNSW or FLAT).
func buildIndex(vectorDim int, algo db.VectorAlgorithm, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	b := db.NewIndex(indexName()).
		Prefix(framePrefix()).
		Tag(fieldVideoID).
		Numeric(fieldTimestamp)
	switch algo {
	case db.VectorFlat:
		b = b.VectorFlat(fieldVector, vectorDim, db.DistanceCosine)
	case db.VectorHNSW:
		b = b.VectorHNSW(fieldVector, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct)
	default:
		return nil, fmt.Errorf("unsupported vector algorithm %q", algo)
	}
	return b.Build() //nolint:wrapcheck // builder validation message is self-describing
}
