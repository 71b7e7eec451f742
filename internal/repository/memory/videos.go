package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
)

// Videos is an in-process video registry.
type Videos struct {
	mu     sync.RWMutex
	videos map[string]domvideo.Video
}

// NewVideos creates an empty registry.
func NewVideos() *Videos {
	return &Videos{videos: make(map[string]domvideo.Video)}
}

// Create stores a new video. Returns domain.ErrAlreadyExists if the id is taken.
func (v *Videos) Create(_ context.Context, vid domvideo.Video) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.videos[vid.ID()]; ok {
		return domain.ErrAlreadyExists
	}
	v.videos[vid.ID()] = vid
	return nil
}

// Save stores a video, replacing what was there.
func (v *Videos) Save(_ context.Context, vid domvideo.Video) error {
	v.mu.Lock()
	v.videos[vid.ID()] = vid
	v.mu.Unlock()
	return nil
}

// Get retrieves a video by id.
func (v *Videos) Get(_ context.Context, id string) (domvideo.Video, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	vid, ok := v.videos[id]
	if !ok {
		return domvideo.Video{}, domain.ErrVideoNotFound
	}
	return vid, nil
}

// Contains reports whether a video is registered.
func (v *Videos) Contains(_ context.Context, id string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.videos[id]
	return ok, nil
}

// List returns all videos sorted by CreatedAt, then id.
func (v *Videos) List(_ context.Context) ([]domvideo.Video, error) {
	v.mu.RLock()
	out := make([]domvideo.Video, 0, len(v.videos))
	for _, vid := range v.videos {
		out = append(out, vid)
	}
	v.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt() != out[j].CreatedAt() {
			return out[i].CreatedAt() < out[j].CreatedAt()
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}

// Delete removes a video. Returns domain.ErrVideoNotFound if absent.
func (v *Videos) Delete(_ context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.videos[id]; !ok {
		return domain.ErrVideoNotFound
	}
	delete(v.videos, id)
	return nil
}
