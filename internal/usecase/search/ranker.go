package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	"github.com/kailas-cloud/vidsearch/internal/domain/frame"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vidsearch/internal/metrics"
)

// DefaultOverFetch multiplies k when a lookup is scoped to one video,
// so that enough candidates survive the video filter.
const DefaultOverFetch = 10

// Ranker turns raw index candidates into a dense ranking under a score floor
// and an optional video scope. It holds no per-call state.
type Ranker struct {
	index     Index
	overFetch int
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithOverFetch sets the scoped fetch multiplier. Values below 1 are ignored.
func WithOverFetch(factor int) RankerOption {
	return func(r *Ranker) {
		if factor >= 1 {
			r.overFetch = factor
		}
	}
}

// NewRanker creates a ranker over index.
func NewRanker(index Index, opts ...RankerOption) *Ranker {
	r := &Ranker{index: index, overFetch: DefaultOverFetch}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats reads the index state.
func (r *Ranker) Stats(ctx context.Context) (frame.Stats, error) {
	st, err := r.index.Stats(ctx)
	if err != nil {
		return frame.Stats{}, fmt.Errorf("index stats: %w", err)
	}
	return st, nil
}

// Lookup returns at most k frames with score >= floor, restricted to scope
// when it is non-empty. Ranks are 1-based and follow index order.
// The caller checks that scope names a known video.
func (r *Ranker) Lookup(
	ctx context.Context, vector []float32, k int, floor float64, scope string,
) ([]result.Result, error) {
	if k <= 0 {
		return nil, domain.InvalidArgument("k must be positive, got %d", k)
	}
	st, err := r.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return r.lookup(ctx, st, vector, k, floor, scope)
}

func (r *Ranker) lookup(
	ctx context.Context, st frame.Stats, vector []float32, k int, floor float64, scope string,
) ([]result.Result, error) {
	if !st.Ready {
		metrics.SearchIndexUnavailableTotal.Inc()
		return nil, domain.ErrIndexUnavailable
	}

	fetch := r.fetchSize(k, scope != "", st.Frames)
	if fetch == 0 {
		return []result.Result{}, nil
	}

	start := time.Now()
	candidates, err := r.index.Search(ctx, vector, fetch)
	metrics.SearchLookupDuration.WithLabelValues(scopeLabel(scope)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]result.Result, 0, min(k, len(candidates)))
	for _, c := range candidates {
		if c.Score() < floor {
			continue
		}
		if scope != "" && c.Frame().VideoID() != scope {
			continue
		}
		results = append(results, result.FromCandidate(c, len(results)+1))
		if len(results) >= k {
			break
		}
	}
	return results, nil
}

// fetchSize is k (k*overFetch when scoped), capped at the indexed frame count.
func (r *Ranker) fetchSize(k int, scoped bool, indexed int) int {
	n := k
	if scoped {
		n = k * r.overFetch
	}
	return max(0, min(n, indexed))
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "all"
	}
	return "video"
}
