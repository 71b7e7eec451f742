package frame

import (
	"fmt"
	"math"
)

// MaxIDLength bounds frame and video identifiers.
const MaxIDLength = 128

// Frame is an indexed still taken from a video (immutable value object).
type Frame struct {
	id          string
	videoID     string
	timestamp   float64
	number      int
	storagePath string
}

// New validates and creates a Frame. An empty id is derived from the video id and frame number.
func New(id, videoID string, timestamp float64, number int, storagePath string) (Frame, error) {
	if videoID == "" {
		return Frame{}, fmt.Errorf("video id is required")
	}
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) || timestamp < 0 {
		return Frame{}, fmt.Errorf("timestamp must be a finite value >= 0, got %v", timestamp)
	}
	if number < 0 {
		return Frame{}, fmt.Errorf("frame number must be >= 0, got %d", number)
	}
	if id == "" {
		id = DefaultID(videoID, number)
	}
	if len(id) > MaxIDLength {
		return Frame{}, fmt.Errorf("frame id too long (max %d)", MaxIDLength)
	}
	return Frame{id: id, videoID: videoID, timestamp: timestamp, number: number, storagePath: storagePath}, nil
}

// Reconstruct restores a Frame from storage without validation.
func Reconstruct(id, videoID string, timestamp float64, number int, storagePath string) Frame {
	return Frame{id: id, videoID: videoID, timestamp: timestamp, number: number, storagePath: storagePath}
}

// DefaultID builds the conventional frame id: <video_id>_frame_<NNNNNN>.
func DefaultID(videoID string, number int) string {
	return fmt.Sprintf("%s_frame_%06d", videoID, number)
}

// ID returns the frame identifier.
func (f Frame) ID() string { return f.id }

// VideoID returns the owning video identifier.
func (f Frame) VideoID() string { return f.videoID }

// Timestamp returns the offset into the video in seconds.
func (f Frame) Timestamp() float64 { return f.timestamp }

// Number returns the frame's position in the decoded stream.
func (f Frame) Number() int { return f.number }

// StoragePath returns where the extracted still is stored.
func (f Frame) StoragePath() string { return f.storagePath }

// Candidate is a frame returned by the similarity index together with its score.
type Candidate struct {
	frame Frame
	score float64
}

// NewCandidate pairs a frame with its similarity score (higher is better).
func NewCandidate(f Frame, score float64) Candidate {
	return Candidate{frame: f, score: score}
}

// Frame returns the matched frame.
func (c Candidate) Frame() Frame { return c.frame }

// Score returns the similarity score.
func (c Candidate) Score() float64 { return c.score }

// Entry is a frame ready for indexing together with its embedding.
type Entry struct {
	Frame  Frame
	Vector []float32
}

// Stats reports the state of a frame index.
type Stats struct {
	Ready  bool // an index has been built
	Frames int  // frames currently searchable
}
