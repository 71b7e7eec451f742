package request

import (
	"math"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	"github.com/kailas-cloud/vidsearch/internal/domain/video"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultTopK    = 30
	MaxTopK        = 100
	// DefaultMinScore drops weak matches when the caller does not set a floor.
	DefaultMinScore = 0.1
	// DefaultWindow is the width in seconds of the interval around each frame hit.
	DefaultWindow = 10.0
)

// Params holds raw search options before validation.
type Params struct {
	TopK          int
	MinScore      float64
	VideoID       string
	MergeSegments bool
	Window        float64
	MergeGap      float64
	MaxTopK       int // 0 means MaxTopK
}

// Request is a validated search query.
type Request struct {
	query         string
	vector        []float32
	topK          int
	minScore      float64
	videoID       string
	mergeSegments bool
	window        float64
	mergeGap      float64
}

// New validates a text search.
func New(query string, p Params) (Request, error) {
	if query == "" {
		return Request{}, domain.InvalidArgument("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, domain.InvalidArgument("query too long (max %d chars)", MaxQueryLength)
	}
	r, err := fromParams(p)
	if err != nil {
		return Request{}, err
	}
	r.query = query
	return r, nil
}

// NewVector validates a search by a precomputed query embedding.
func NewVector(vector []float32, p Params) (Request, error) {
	if len(vector) == 0 {
		return Request{}, domain.InvalidArgument("vector is required")
	}
	for _, x := range vector {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return Request{}, domain.InvalidArgument("vector contains non-finite values")
		}
	}
	r, err := fromParams(p)
	if err != nil {
		return Request{}, err
	}
	r.vector = vector
	return r, nil
}

func fromParams(p Params) (Request, error) {
	maxTopK := p.MaxTopK
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}
	if p.TopK <= 0 || p.TopK > maxTopK {
		return Request{}, domain.InvalidArgument("k must be between 1 and %d, got %d", maxTopK, p.TopK)
	}
	if math.IsNaN(p.MinScore) || p.MinScore < 0 || p.MinScore > 1 {
		return Request{}, domain.InvalidArgument("min_score must be between 0 and 1")
	}
	if p.VideoID != "" {
		if err := video.ValidateID(p.VideoID); err != nil {
			return Request{}, domain.InvalidArgument("%s", err.Error())
		}
	}
	window := p.Window
	if window == 0 {
		window = DefaultWindow
	}
	if math.IsNaN(window) || window <= 0 {
		return Request{}, domain.InvalidArgument("segment window must be positive")
	}
	if math.IsNaN(p.MergeGap) || p.MergeGap < 0 {
		return Request{}, domain.InvalidArgument("merge gap must be >= 0")
	}

	return Request{
		topK:          p.TopK,
		minScore:      p.MinScore,
		videoID:       p.VideoID,
		mergeSegments: p.MergeSegments,
		window:        window,
		mergeGap:      p.MergeGap,
	}, nil
}

// Query returns the search query text (empty for vector searches).
func (r *Request) Query() string { return r.query }

// Vector returns the precomputed query embedding (nil for text searches).
func (r *Request) Vector() []float32 { return r.vector }

// TopK returns the maximum number of ranked frames.
func (r *Request) TopK() int { return r.topK }

// MinScore returns the similarity floor.
func (r *Request) MinScore() float64 { return r.minScore }

// VideoID returns the video scope, empty when searching all videos.
func (r *Request) VideoID() string { return r.videoID }

// HasScope reports whether the search is restricted to one video.
func (r *Request) HasScope() bool { return r.videoID != "" }

// MergeSegments reports whether frame hits should be consolidated into segments.
func (r *Request) MergeSegments() bool { return r.mergeSegments }

// Window returns the segment window width in seconds.
func (r *Request) Window() float64 { return r.window }

// MergeGap returns the extra tolerance in seconds for joining neighbouring intervals.
func (r *Request) MergeGap() float64 { return r.mergeGap }
