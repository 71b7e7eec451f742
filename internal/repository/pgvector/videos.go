package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
)

const videoColumns = `id, filename, path, duration, fps, width, height, total_frames, frames_indexed, created_at`

// Videos is the Postgres video registry.
type Videos struct {
	q querier
}

// NewVideos creates the video registry over d.
func NewVideos(d *DB) *Videos {
	return &Videos{q: d.q}
}

// Create inserts a new video. Returns domain.ErrAlreadyExists if the id is taken.
func (v *Videos) Create(ctx context.Context, vid domvideo.Video) error {
	tag, err := v.q.Exec(ctx,
		`INSERT INTO videos (`+videoColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		videoArgs(vid)...)
	if err != nil {
		return fmt.Errorf("insert video %s: %w", vid.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Save upserts a video.
func (v *Videos) Save(ctx context.Context, vid domvideo.Video) error {
	_, err := v.q.Exec(ctx,
		`INSERT INTO videos (`+videoColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename, path = EXCLUDED.path,
			duration = EXCLUDED.duration, fps = EXCLUDED.fps,
			width = EXCLUDED.width, height = EXCLUDED.height,
			total_frames = EXCLUDED.total_frames, frames_indexed = EXCLUDED.frames_indexed`,
		videoArgs(vid)...)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", vid.ID(), err)
	}
	return nil
}

// Get retrieves a video by id.
func (v *Videos) Get(ctx context.Context, id string) (domvideo.Video, error) {
	row := v.q.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	vid, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domvideo.Video{}, domain.ErrVideoNotFound
		}
		return domvideo.Video{}, fmt.Errorf("select video %s: %w", id, err)
	}
	return vid, nil
}

// Contains reports whether a video is registered.
func (v *Videos) Contains(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := v.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("check video %s: %w", id, err)
	}
	return ok, nil
}

// List returns all videos sorted by CreatedAt.
func (v *Videos) List(ctx context.Context) ([]domvideo.Video, error) {
	rows, err := v.q.Query(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := []domvideo.Video{}
	for rows.Next() {
		vid, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, vid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// Delete removes a video. Returns domain.ErrVideoNotFound if absent.
func (v *Videos) Delete(ctx context.Context, id string) error {
	tag, err := v.q.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func videoArgs(vid domvideo.Video) []any {
	m := vid.Meta()
	return []any{
		vid.ID(), vid.Filename(), vid.Path(), m.Duration, m.FPS,
		m.Width, m.Height, m.TotalFrames, vid.FramesIndexed(), vid.CreatedAt(),
	}
}

func scanVideo(row pgx.Row) (domvideo.Video, error) {
	var (
		id, filename, path string
		m                  domvideo.Meta
		indexed            int
		createdAt          int64
	)
	if err := row.Scan(&id, &filename, &path, &m.Duration, &m.FPS,
		&m.Width, &m.Height, &m.TotalFrames, &indexed, &createdAt); err != nil {
		return domvideo.Video{}, err //nolint:wrapcheck // wrapped by caller
	}
	return domvideo.Reconstruct(id, filename, path, m, indexed, createdAt), nil
}
