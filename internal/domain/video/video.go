package video

import (
	"fmt"
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Meta describes the decoded stream properties of a video.
type Meta struct {
	Duration    float64
	FPS         float64
	Width       int
	Height      int
	TotalFrames int
}

// Video is the indexed video aggregate (immutable value object).
type Video struct {
	id            string
	filename      string
	path          string
	meta          Meta
	framesIndexed int
	createdAt     int64
}

// ValidateID checks a video identifier: ^[a-zA-Z0-9_-]+$, 1-64 chars.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("video id is required")
	}
	if len(id) > 64 {
		return fmt.Errorf("video id too long (max 64)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("video id must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a Video.
func New(id, filename, path string, meta Meta) (Video, error) {
	if err := ValidateID(id); err != nil {
		return Video{}, err
	}
	if meta.Duration < 0 {
		return Video{}, fmt.Errorf("duration must be >= 0")
	}
	if meta.FPS < 0 {
		return Video{}, fmt.Errorf("fps must be >= 0")
	}
	if meta.Width < 0 || meta.Height < 0 || meta.TotalFrames < 0 {
		return Video{}, fmt.Errorf("width, height and total frames must be >= 0")
	}
	return Video{
		id:        id,
		filename:  filename,
		path:      path,
		meta:      meta,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct restores a Video from storage without validation.
func Reconstruct(id, filename, path string, meta Meta, framesIndexed int, createdAt int64) Video {
	return Video{
		id:            id,
		filename:      filename,
		path:          path,
		meta:          meta,
		framesIndexed: framesIndexed,
		createdAt:     createdAt,
	}
}

// WithFramesIndexed returns a copy with the indexed frame count set.
func (v Video) WithFramesIndexed(n int) Video {
	v.framesIndexed = n
	return v
}

// ID returns the video identifier.
func (v Video) ID() string { return v.id }

// Filename returns the name the video was uploaded with.
func (v Video) Filename() string { return v.filename }

// Path returns the storage location of the video file.
func (v Video) Path() string { return v.path }

// Meta returns the stream properties.
func (v Video) Meta() Meta { return v.meta }

// FramesIndexed returns how many frames of the video are in the index.
func (v Video) FramesIndexed() int { return v.framesIndexed }

// CreatedAt returns the creation timestamp in unix milliseconds.
func (v Video) CreatedAt() int64 { return v.createdAt }
