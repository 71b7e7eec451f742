package result

import (
	"testing"

	"github.com/kailas-cloud/vidsearch/internal/domain/frame"
)

func TestNew(t *testing.T) {
	f := frame.Reconstruct("vid_frame_000010", "vid", 10.0, 10, "/frames/vid/frame_000010.jpg")
	r := New(f, 0.91, 3)

	if r.FrameID() != "vid_frame_000010" {
		t.Errorf("FrameID() = %q", r.FrameID())
	}
	if r.VideoID() != "vid" {
		t.Errorf("VideoID() = %q", r.VideoID())
	}
	if r.Timestamp() != 10.0 {
		t.Errorf("Timestamp() = %f", r.Timestamp())
	}
	if r.Score() != 0.91 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Rank() != 3 {
		t.Errorf("Rank() = %d", r.Rank())
	}
	if r.Frame().StoragePath() != "/frames/vid/frame_000010.jpg" {
		t.Errorf("Frame().StoragePath() = %q", r.Frame().StoragePath())
	}
}

func TestFromCandidate(t *testing.T) {
	c := frame.NewCandidate(frame.Reconstruct("f", "v", 1, 0, ""), 0.5)
	r := FromCandidate(c, 1)
	if r.Score() != 0.5 || r.Rank() != 1 || r.FrameID() != "f" {
		t.Errorf("unexpected result: %+v", r)
	}
}
