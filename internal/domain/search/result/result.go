package result

import "github.com/kailas-cloud/vidsearch/internal/domain/frame"

// Result is a frame hit with its dense 1-based rank within one lookup.
type Result struct {
	frame frame.Frame
	score float64
	rank  int
}

// New creates a ranked result.
func New(f frame.Frame, score float64, rank int) Result {
	return Result{frame: f, score: score, rank: rank}
}

// FromCandidate ranks an index candidate.
func FromCandidate(c frame.Candidate, rank int) Result {
	return Result{frame: c.Frame(), score: c.Score(), rank: rank}
}

// Frame returns the matched frame.
func (r *Result) Frame() frame.Frame { return r.frame }

// FrameID returns the frame identifier.
func (r *Result) FrameID() string { return r.frame.ID() }

// VideoID returns the owning video identifier.
func (r *Result) VideoID() string { return r.frame.VideoID() }

// Timestamp returns the frame offset in seconds.
func (r *Result) Timestamp() float64 { return r.frame.Timestamp() }

// Score returns the similarity score.
func (r *Result) Score() float64 { return r.score }

// Rank returns the 1-based position in the lookup output.
func (r *Result) Rank() int { return r.rank }
