// Package segment merges temporally close frame hits of the same video into
// time segments, each carrying its best-scoring frame.
package segment

import "github.com/kailas-cloud/vidsearch/internal/domain/search/result"

// Segment is a contiguous time range of one video (immutable value object).
type Segment struct {
	videoID    string
	start      float64
	end        float64
	bestScore  float64
	bestFrame  result.Result
	frameCount int
}

// VideoID returns the video the segment belongs to.
func (s *Segment) VideoID() string { return s.videoID }

// Start returns the segment start in seconds (never negative).
func (s *Segment) Start() float64 { return s.start }

// End returns the segment end in seconds.
func (s *Segment) End() float64 { return s.end }

// Duration returns End - Start.
func (s *Segment) Duration() float64 { return s.end - s.start }

// BestScore returns the highest score among merged frames.
func (s *Segment) BestScore() float64 { return s.bestScore }

// BestFrame returns the ranked frame that holds BestScore.
func (s *Segment) BestFrame() result.Result { return s.bestFrame }

// FrameCount returns how many frame hits were merged.
func (s *Segment) FrameCount() int { return s.frameCount }

// VideoStats aggregates the segments of one video.
type VideoStats struct {
	SegmentCount  int
	TotalDuration float64
	BestScore     float64
}

// Summary aggregates a consolidation output.
type Summary struct {
	TotalSegments int
	TotalDuration float64
	UniqueVideos  int
	Videos        map[string]VideoStats
}

// Summarize derives a Summary from segments. Empty input yields the zero summary
// with an empty (non-nil) Videos map.
func Summarize(segments []Segment) Summary {
	sum := Summary{Videos: make(map[string]VideoStats)}
	for i := range segments {
		s := &segments[i]
		st, seen := sum.Videos[s.videoID]
		if !seen || s.bestScore > st.BestScore {
			st.BestScore = s.bestScore
		}
		st.SegmentCount++
		st.TotalDuration += s.Duration()
		sum.Videos[s.videoID] = st

		sum.TotalSegments++
		sum.TotalDuration += s.Duration()
	}
	sum.UniqueVideos = len(sum.Videos)
	return sum
}
