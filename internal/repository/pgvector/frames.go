package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
)

// hnswIndexName is the ANN index whose presence marks the frame index as built.
const hnswIndexName = "frames_embedding_hnsw_idx"

// An HNSW scan yields at most hnsw.ef_search tuples; pgvector accepts 1..1000.
const (
	defaultEFSearch = 40
	maxEFSearch     = 1000
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Frames is the Postgres frame index. Similarity is 1 - cosine distance (<=>).
type Frames struct {
	q    querier
	dim  int
	hnsw HNSWConfig
}

// NewFrames creates the frame index over d.
func NewFrames(d *DB) *Frames {
	return &Frames{q: d.q, dim: d.dim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (f *Frames) WithHNSW(cfg HNSWConfig) *Frames {
	if cfg.M > 0 {
		f.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		f.hnsw.EFConstruct = cfg.EFConstruct
	}
	return f
}

// EnsureIndex creates the HNSW index if it does not exist yet.
func (f *Frames) EnsureIndex(ctx context.Context) error {
	sql := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON frames USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)`,
		hnswIndexName, f.hnsw.M, f.hnsw.EFConstruct,
	)
	if _, err := f.q.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create frame index: %w", err)
	}
	return nil
}

// Reindex drops the HNSW index and builds it again with the current parameters.
func (f *Frames) Reindex(ctx context.Context) error {
	if _, err := f.q.Exec(ctx, "DROP INDEX IF EXISTS "+hnswIndexName); err != nil {
		return fmt.Errorf("drop frame index: %w", err)
	}
	return f.EnsureIndex(ctx)
}

// Stats reports whether the HNSW index exists and how many frames are stored.
// The frame count comes from the per-video frames_indexed counters, so it never scans frames.
func (f *Frames) Stats(ctx context.Context) (domframe.Stats, error) {
	var st domframe.Stats
	err := f.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = $1),
			(SELECT COALESCE(sum(frames_indexed), 0)::int FROM videos)`,
		hnswIndexName,
	).Scan(&st.Ready, &st.Frames)
	if err != nil {
		return domframe.Stats{}, fmt.Errorf("frame index stats: %w", err)
	}
	return st, nil
}

// Add inserts frames in one batch.
func (f *Frames) Add(ctx context.Context, entries []domframe.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]
		if len(e.Vector) != f.dim {
			return domain.NewDimMismatch(f.dim, len(e.Vector))
		}
		b.Queue(
			`INSERT INTO frames (video_id, id, ts, frame_number, storage_path, embedding) VALUES ($1, $2, $3, $4, $5, $6)`,
			e.Frame.VideoID(), e.Frame.ID(), e.Frame.Timestamp(), e.Frame.Number(), e.Frame.StoragePath(),
			pgvector.NewVector(e.Vector),
		)
	}

	br := f.q.SendBatch(ctx, b)
	for i := range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert frame %s: %w", entries[i].Frame.ID(), err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return nil
}

// Search returns the topN nearest frames, most similar first.
// The scan runs in a transaction that raises hnsw.ef_search to topN.
func (f *Frames) Search(ctx context.Context, vector []float32, topN int) ([]domframe.Candidate, error) {
	if len(vector) != f.dim {
		return nil, domain.NewDimMismatch(f.dim, len(vector))
	}
	if topN <= 0 {
		return []domframe.Candidate{}, nil
	}

	tx, err := f.q.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin search: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearch(topN))); err != nil {
		return nil, fmt.Errorf("set ef_search: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT id, video_id, ts, frame_number, storage_path, 1 - (embedding <=> $1) AS similarity
		FROM frames
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(vector), topN)
	if err != nil {
		return nil, fmt.Errorf("search frames: %w", err)
	}
	defer rows.Close()

	out := make([]domframe.Candidate, 0, topN)
	for rows.Next() {
		var (
			id, videoID, path string
			ts, score         float64
			number            int
		)
		if err := rows.Scan(&id, &videoID, &ts, &number, &path, &score); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		out = append(out, domframe.NewCandidate(domframe.Reconstruct(id, videoID, ts, number, path), score))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return out, nil
}

func efSearch(topN int) int {
	return min(max(topN, defaultEFSearch), maxEFSearch)
}

// DeleteVideo removes every frame of a video. Returns the number of frames removed.
func (f *Frames) DeleteVideo(ctx context.Context, videoID string) (int, error) {
	tag, err := f.q.Exec(ctx, `DELETE FROM frames WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, fmt.Errorf("delete frames %s: %w", videoID, err)
	}
	return int(tag.RowsAffected()), nil
}
