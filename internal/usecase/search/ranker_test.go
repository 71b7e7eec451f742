package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	"github.com/kailas-cloud/vidsearch/internal/domain/frame"
)

func TestLookup_RanksInIndexOrder(t *testing.T) {
	idx := readyIndex(
		cand("v1", 1, 10.5, 0.95),
		cand("v1", 2, 12.0, 0.92),
		cand("v2", 3, 5.0, 0.80),
	)
	r := NewRanker(idx)

	res, err := r.Lookup(context.Background(), []float32{1}, 10, 0.1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	for i := range res {
		if res[i].Rank() != i+1 {
			t.Errorf("result %d has rank %d", i, res[i].Rank())
		}
		if i > 0 && res[i].Score() > res[i-1].Score() {
			t.Errorf("scores increase at %d", i)
		}
	}
	if idx.lastTopN != 10 {
		t.Errorf("unscoped fetch should be k, got %d", idx.lastTopN)
	}
}

func TestLookup_DropsBelowFloorAndReranks(t *testing.T) {
	idx := readyIndex(
		cand("v1", 1, 1, 0.9),
		cand("v1", 2, 2, 0.05),
		cand("v1", 3, 3, 0.5),
	)
	r := NewRanker(idx)

	res, err := r.Lookup(context.Background(), []float32{1}, 10, 0.5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 2 || res[1].FrameID() != "v1_frame_000003" || res[1].Rank() != 2 {
		t.Fatalf("unexpected results: %+v", res)
	}
	for _, x := range res {
		if x.Score() < 0.5 {
			t.Errorf("score %v below floor", x.Score())
		}
	}
}

func TestLookup_FloorIsInclusive(t *testing.T) {
	r := NewRanker(readyIndex(cand("v1", 1, 1, 0.1)))

	res, err := r.Lookup(context.Background(), []float32{1}, 5, 0.1, "")
	if err != nil || len(res) != 1 {
		t.Fatalf("expected score equal to floor to be kept, got %d, %v", len(res), err)
	}
}

func TestLookup_ScopedOverFetchesAndFilters(t *testing.T) {
	cands := make([]frame.Candidate, 0, 40)
	for i := range 38 {
		cands = append(cands, cand("other", i, float64(i), 0.99-float64(i)*0.001))
	}
	cands = append(cands, cand("target", 100, 50, 0.6), cand("target", 101, 51, 0.55))
	idx := readyIndex(cands...)
	r := NewRanker(idx)

	res, err := r.Lookup(context.Background(), []float32{1}, 30, 0.1, "target")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected exactly 2 results, got %d", len(res))
	}
	if res[0].Rank() != 1 || res[1].Rank() != 2 || res[0].VideoID() != "target" {
		t.Errorf("unexpected results: %+v", res)
	}
	if idx.lastTopN != 300 {
		t.Errorf("expected over-fetch of 300, got %d", idx.lastTopN)
	}
}

func TestLookup_FetchCappedAtIndexSize(t *testing.T) {
	idx := readyIndex(cand("v1", 1, 1, 0.9))
	idx.stats.Frames = 42
	r := NewRanker(idx, WithOverFetch(20))

	if _, err := r.Lookup(context.Background(), []float32{1}, 30, 0, "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.lastTopN != 42 {
		t.Errorf("expected fetch capped at 42, got %d", idx.lastTopN)
	}
}

func TestLookup_EmptyIndexSkipsSearch(t *testing.T) {
	idx := &mockIndex{stats: frame.Stats{Ready: true}}
	r := NewRanker(idx)

	res, err := r.Lookup(context.Background(), []float32{1}, 5, 0, "")
	if err != nil || len(res) != 0 || res == nil {
		t.Fatalf("expected empty non-nil results, got %v, %v", res, err)
	}
	if idx.searches != 0 {
		t.Errorf("index must not be queried for 0 frames")
	}
}

func TestLookup_StopsAtK(t *testing.T) {
	r := NewRanker(readyIndex(
		cand("v1", 1, 1, 0.9), cand("v1", 2, 2, 0.8), cand("v1", 3, 3, 0.7),
	))

	res, err := r.Lookup(context.Background(), []float32{1}, 2, 0, "v1")
	if err != nil || len(res) != 2 {
		t.Fatalf("expected 2 results, got %d, %v", len(res), err)
	}
}

func TestLookup_IndexUnavailable(t *testing.T) {
	r := NewRanker(&mockIndex{})

	_, err := r.Lookup(context.Background(), []float32{1}, 5, 0, "")
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestLookup_InvalidK(t *testing.T) {
	r := NewRanker(readyIndex())

	for _, k := range []int{0, -3} {
		if _, err := r.Lookup(context.Background(), []float32{1}, k, 0, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("k=%d: expected ErrInvalidArgument, got %v", k, err)
		}
	}
}

func TestLookup_IndexErrors(t *testing.T) {
	idx := readyIndex()
	idx.searchErr = domain.NewDimMismatch(512, 3)
	r := NewRanker(idx)

	_, err := r.Lookup(context.Background(), []float32{1, 2, 3}, 5, 0, "")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}

	idx = &mockIndex{statsErr: errors.New("connection refused")}
	if _, err := NewRanker(idx).Lookup(context.Background(), []float32{1}, 5, 0, ""); err == nil {
		t.Fatal("expected stats error")
	}
}

func TestWithOverFetch_IgnoresNonPositive(t *testing.T) {
	r := NewRanker(readyIndex(), WithOverFetch(0))
	if r.overFetch != DefaultOverFetch {
		t.Errorf("expected default over-fetch, got %d", r.overFetch)
	}
}
