package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
)

// Frames is an exact inner-product index held in process memory.
// With L2-normalised vectors the inner product equals cosine similarity.
// Searches run concurrently; Add and DeleteVideo take the write lock.
type Frames struct {
	mu      sync.RWMutex
	dim     int
	built   bool
	entries []domframe.Entry
}

// NewFrames creates an empty index for vectors of the given dimension.
func NewFrames(dim int) *Frames {
	return &Frames{dim: dim}
}

// EnsureIndex marks the index as built.
func (f *Frames) EnsureIndex(_ context.Context) error {
	f.mu.Lock()
	f.built = true
	f.mu.Unlock()
	return nil
}

// Reindex is EnsureIndex: the flat scan keeps no structure to rebuild.
func (f *Frames) Reindex(ctx context.Context) error {
	return f.EnsureIndex(ctx)
}

// Stats reports whether the index is built and how many frames it holds.
func (f *Frames) Stats(_ context.Context) (domframe.Stats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return domframe.Stats{Ready: f.built, Frames: len(f.entries)}, nil
}

// Add appends frames. Vectors are copied.
func (f *Frames) Add(_ context.Context, entries []domframe.Entry) error {
	for i := range entries {
		if len(entries[i].Vector) != f.dim {
			return domain.NewDimMismatch(f.dim, len(entries[i].Vector))
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		f.entries = append(f.entries, domframe.Entry{
			Frame:  e.Frame,
			Vector: append([]float32(nil), e.Vector...),
		})
	}
	return nil
}

// Search scores every frame and returns the topN best, most similar first.
// Equal scores keep insertion order.
func (f *Frames) Search(_ context.Context, vector []float32, topN int) ([]domframe.Candidate, error) {
	if len(vector) != f.dim {
		return nil, domain.NewDimMismatch(f.dim, len(vector))
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.built {
		return nil, domain.ErrIndexUnavailable
	}
	if topN <= 0 || len(f.entries) == 0 {
		return []domframe.Candidate{}, nil
	}

	scored := make([]domframe.Candidate, len(f.entries))
	for i := range f.entries {
		scored[i] = domframe.NewCandidate(f.entries[i].Frame, domain.Dot(vector, f.entries[i].Vector))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score() > scored[j].Score()
	})

	if topN < len(scored) {
		scored = scored[:topN]
	}
	return scored, nil
}

// DeleteVideo removes every frame of a video. Returns the number of frames removed.
func (f *Frames) DeleteVideo(_ context.Context, videoID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.Frame.VideoID() != videoID {
			kept = append(kept, e)
		}
	}
	removed := len(f.entries) - len(kept)
	clear(f.entries[len(kept):])
	f.entries = kept
	return removed, nil
}
