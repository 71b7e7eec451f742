package video

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
)

// store is the consumer interface for the video registry (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo keeps video metadata as one hash per video.
type Repo struct {
	store store
}

// New creates a video repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a new video. Returns domain.ErrAlreadyExists if the id is taken.
func (r *Repo) Create(ctx context.Context, v domvideo.Video) error {
	exists, err := r.Contains(ctx, v.ID())
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyExists
	}
	return r.Save(ctx, v)
}

// Save writes video metadata, replacing what was there.
func (r *Repo) Save(ctx context.Context, v domvideo.Video) error {
	if err := r.store.HSet(ctx, metaKey(v.ID()), videoToHash(v)); err != nil {
		return fmt.Errorf("hset video %s: %w", v.ID(), err)
	}
	return nil
}

// Get retrieves a video by id.
func (r *Repo) Get(ctx context.Context, id string) (domvideo.Video, error) {
	m, err := r.store.HGetAll(ctx, metaKey(id))
	if err != nil {
		return domvideo.Video{}, fmt.Errorf("hgetall video %s: %w", id, err)
	}
	if len(m) == 0 {
		return domvideo.Video{}, domain.ErrVideoNotFound
	}
	return videoFromHash(m)
}

// Contains reports whether a video is registered.
func (r *Repo) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, metaKey(id))
	if err != nil {
		return false, fmt.Errorf("check video %s: %w", id, err)
	}
	return ok, nil
}

// List returns all videos sorted by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]domvideo.Video, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan videos: %w", err)
	}
	if len(keys) == 0 {
		return []domvideo.Video{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi videos: %w", err)
	}

	videos := make([]domvideo.Video, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		v, err := videoFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse video %s: %w", keys[i], err)
		}
		videos = append(videos, v)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].CreatedAt() < videos[j].CreatedAt()
	})
	return videos, nil
}

// Delete removes video metadata. Returns domain.ErrVideoNotFound if absent.
func (r *Repo) Delete(ctx context.Context, id string) error {
	exists, err := r.Contains(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrVideoNotFound
	}
	if err := r.store.Del(ctx, metaKey(id)); err != nil {
		return fmt.Errorf("del video %s: %w", id, err)
	}
	return nil
}

// vidsearch:video:{id}
func metaKey(id string) string {
	return domain.KeyPrefix + "video:" + id
}
