package pgvector

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB owns the connection pool shared by Frames and Videos.
type DB struct {
	pool *pgxpool.Pool
	q    querier
	dim  int
}

// Open connects to Postgres, waits for it to answer and creates the schema
// (extension, tables, lookup indexes) if it is missing.
func Open(ctx context.Context, dsn string, dim int, timeout time.Duration) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d := &DB{pool: pool, q: pool, dim: dim}

	if err := d.WaitForReady(ctx, timeout); err != nil {
		pool.Close()
		return nil, err
	}
	if err := d.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return d, nil
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until Postgres responds or timeout expires.
func (d *DB) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := d.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close releases the pool.
func (d *DB) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

func (d *DB) initSchema(ctx context.Context) error {
	_, err := d.q.Exec(ctx, schemaSQL(d.dim))
	return err //nolint:wrapcheck // wrapped by caller
}

func schemaSQL(dim int) string {
	return fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			duration DOUBLE PRECISION NOT NULL DEFAULT 0,
			fps DOUBLE PRECISION NOT NULL DEFAULT 0,
			width INT NOT NULL DEFAULT 0,
			height INT NOT NULL DEFAULT 0,
			total_frames INT NOT NULL DEFAULT 0,
			frames_indexed INT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS frames (
			video_id TEXT NOT NULL,
			id TEXT NOT NULL,
			ts DOUBLE PRECISION NOT NULL,
			frame_number INT NOT NULL,
			storage_path TEXT NOT NULL DEFAULT '',
			embedding VECTOR(%d) NOT NULL,
			PRIMARY KEY (video_id, id)
		);
		CREATE INDEX IF NOT EXISTS frames_video_id_idx ON frames (video_id);
	`, dim)
}
