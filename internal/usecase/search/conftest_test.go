package search

import (
	"context"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	"github.com/kailas-cloud/vidsearch/internal/domain/frame"
)

// --- Mocks ---

type mockIndex struct {
	stats      frame.Stats
	statsErr   error
	candidates []frame.Candidate
	searchErr  error
	lastTopN   int
	lastVector []float32
	searches   int
}

func (m *mockIndex) Stats(_ context.Context) (frame.Stats, error) {
	return m.stats, m.statsErr
}

func (m *mockIndex) Search(_ context.Context, vector []float32, topN int) ([]frame.Candidate, error) {
	m.searches++
	m.lastTopN = topN
	m.lastVector = vector
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if topN < len(m.candidates) {
		return m.candidates[:topN], nil
	}
	return m.candidates, nil
}

type mockCatalog struct {
	known map[string]bool
	err   error
}

func (m *mockCatalog) Contains(_ context.Context, id string) (bool, error) {
	return m.known[id], m.err
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
	last   string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.last = text
	return m.result, m.err
}

func cand(videoID string, n int, ts, score float64) frame.Candidate {
	return frame.NewCandidate(frame.Reconstruct(frame.DefaultID(videoID, n), videoID, ts, n, ""), score)
}

func readyIndex(cands ...frame.Candidate) *mockIndex {
	return &mockIndex{stats: frame.Stats{Ready: true, Frames: 1000}, candidates: cands}
}
