package chi

import (
	"testing"

	"github.com/kailas-cloud/vidsearch/internal/domain/frame"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/result"
)

func TestLinksThumbnail(t *testing.T) {
	l := links{thumbnailBase: "/frames", videoBase: "/videos"}

	tests := []struct {
		name        string
		storagePath string
		want        string
	}{
		{"basename of storage path", "/data/frames/v1/frame_000360.jpg", "/frames/v1/frame_000360.jpg"},
		{"relative path", "frame_000030.jpg", "/frames/v1/frame_000030.jpg"},
		{"no storage path", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := result.New(frame.Reconstruct("v1_frame_000360", "v1", 12, 360, tt.storagePath), 0.9, 1)
			if got := l.thumbnail(&r); got != tt.want {
				t.Errorf("thumbnail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinksFrameToJSON_NoStoragePath(t *testing.T) {
	l := links{thumbnailBase: "/frames", videoBase: "/videos"}
	r := result.New(frame.Reconstruct("v1_frame_000000", "v1", 0, 0, ""), 0.5, 1)

	if got := l.frameToJSON(&r).ThumbnailURL; got != "" {
		t.Errorf("ThumbnailURL = %q, want empty", got)
	}
}
