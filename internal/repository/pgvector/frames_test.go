package pgvector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
)

func testEntries(t *testing.T, n int) []domframe.Entry {
	t.Helper()
	out := make([]domframe.Entry, n)
	for i := range out {
		f, err := domframe.New("", "v1", float64(i), i*30, "/data/frames/v1/x.jpg")
		if err != nil {
			t.Fatalf("new frame: %v", err)
		}
		out[i] = domframe.Entry{Frame: f, Vector: []float32{1, 0, 0}}
	}
	return out
}

func TestSchemaSQL_UsesDimension(t *testing.T) {
	sql := schemaSQL(512)
	for _, want := range []string{"CREATE EXTENSION IF NOT EXISTS vector", "VECTOR(512)", "CREATE TABLE IF NOT EXISTS videos"} {
		if !strings.Contains(sql, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func TestEnsureIndex_CreatesHNSW(t *testing.T) {
	d, fq := newTestDB(t)
	frames := NewFrames(d).WithHNSW(HNSWConfig{M: 24})

	if err := frames.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fq.execs) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fq.execs))
	}
	sql := fq.execs[0].sql
	if !strings.Contains(sql, "USING hnsw (embedding vector_cosine_ops)") || !strings.Contains(sql, "m = 24") ||
		!strings.Contains(sql, "ef_construction = 200") {
		t.Errorf("unexpected DDL: %s", sql)
	}
}

func TestStats(t *testing.T) {
	d, fq := newTestDB(t)
	fq.queryRowFn = func(_ string, args ...any) pgx.Row {
		if args[0] != hnswIndexName {
			t.Errorf("unexpected index name arg: %v", args[0])
		}
		return fakeRow{vals: []any{true, 42}}
	}

	st, err := NewFrames(d).Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Ready || st.Frames != 42 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestStats_CountsFromVideoCounters(t *testing.T) {
	d, fq := newTestDB(t)
	fq.queryRowFn = func(sql string, _ ...any) pgx.Row {
		if !strings.Contains(sql, "sum(frames_indexed)") {
			t.Errorf("frame count must come from videos.frames_indexed: %s", sql)
		}
		if strings.Contains(sql, "FROM frames") {
			t.Errorf("stats must not scan the frames table: %s", sql)
		}
		return fakeRow{vals: []any{false, 0}}
	}

	if _, err := NewFrames(d).Stats(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReindex_DropsThenCreates(t *testing.T) {
	d, fq := newTestDB(t)

	if err := NewFrames(d).Reindex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fq.execs) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fq.execs))
	}
	if fq.execs[0].sql != "DROP INDEX IF EXISTS "+hnswIndexName {
		t.Errorf("unexpected first statement: %s", fq.execs[0].sql)
	}
	if !strings.HasPrefix(fq.execs[1].sql, "CREATE INDEX IF NOT EXISTS "+hnswIndexName) {
		t.Errorf("unexpected second statement: %s", fq.execs[1].sql)
	}
}

func TestReindex_DropError(t *testing.T) {
	d, fq := newTestDB(t)
	fq.execFn = func(_ string, _ ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("must be owner of index")
	}

	if err := NewFrames(d).Reindex(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(fq.execs) != 1 {
		t.Errorf("must stop after the failed drop, sent %d statements", len(fq.execs))
	}
}

func TestAdd_QueuesOneInsertPerFrame(t *testing.T) {
	d, fq := newTestDB(t)

	if err := NewFrames(d).Add(context.Background(), testEntries(t, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fq.batches) != 1 || fq.batches[0].Len() != 3 {
		t.Fatalf("expected one batch of 3, got %+v", fq.batches)
	}
	qq := fq.batches[0].QueuedQueries[1]
	if qq.Arguments[1] != "v1_frame_000030" {
		t.Errorf("unexpected frame id arg: %v", qq.Arguments[1])
	}
	if _, ok := qq.Arguments[5].(pgvector.Vector); !ok {
		t.Errorf("embedding must be passed as pgvector.Vector, got %T", qq.Arguments[5])
	}
}

func TestAdd_BatchError(t *testing.T) {
	d, fq := newTestDB(t)
	fq.batchErrAt = 2

	err := NewFrames(d).Add(context.Background(), testEntries(t, 3))
	if err == nil || !strings.Contains(err.Error(), "v1_frame_000030") {
		t.Fatalf("expected error naming the failing frame, got %v", err)
	}
}

func TestAdd_DimMismatch(t *testing.T) {
	d, fq := newTestDB(t)
	entries := testEntries(t, 1)
	entries[0].Vector = []float32{1}

	err := NewFrames(d).Add(context.Background(), entries)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if len(fq.batches) != 0 {
		t.Error("nothing must be sent on dimension mismatch")
	}
}

func TestSearch_ScansCandidates(t *testing.T) {
	d, fq := newTestDB(t)
	fq.queryFn = func(sql string, args ...any) (pgx.Rows, error) {
		if !strings.Contains(sql, "1 - (embedding <=> $1)") || args[1] != 7 {
			t.Errorf("unexpected query %q args %v", sql, args)
		}
		return &fakeRows{rows: [][]any{
			{"v1_frame_000360", "v1", 12.0, 360, "/f/1.jpg", 0.91},
			{"v2_frame_000030", "v2", 1.0, 30, "/f/2.jpg", 0.55},
		}}, nil
	}

	cands, err := NewFrames(d).Search(context.Background(), []float32{1, 0, 0}, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 2 || cands[0].Score() != 0.91 || cands[1].Frame().VideoID() != "v2" {
		t.Fatalf("unexpected candidates: %+v", cands)
	}
	if cands[0].Frame().Number() != 360 || cands[0].Frame().Timestamp() != 12 {
		t.Errorf("unexpected frame: %+v", cands[0].Frame())
	}
}

func TestSearch_RaisesEFSearchBeforeScan(t *testing.T) {
	d, fq := newTestDB(t)
	fq.queryFn = func(_ string, _ ...any) (pgx.Rows, error) { return &fakeRows{}, nil }

	if _, err := NewFrames(d).Search(context.Background(), []float32{1, 0, 0}, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fq.stmts) != 4 {
		t.Fatalf("expected BEGIN, SET, SELECT, ROLLBACK; got %q", fq.stmts)
	}
	if fq.stmts[0] != "BEGIN" {
		t.Errorf("stmts[0] = %q, want BEGIN", fq.stmts[0])
	}
	if fq.stmts[1] != "SET LOCAL hnsw.ef_search = 300" {
		t.Errorf("stmts[1] = %q, want SET LOCAL hnsw.ef_search = 300", fq.stmts[1])
	}
	if !strings.HasPrefix(strings.TrimSpace(fq.stmts[2]), "SELECT") {
		t.Errorf("stmts[2] = %q, want the SELECT", fq.stmts[2])
	}
	if fq.stmts[3] != "ROLLBACK" {
		t.Errorf("stmts[3] = %q, want ROLLBACK", fq.stmts[3])
	}
}

func TestEFSearch_Bounds(t *testing.T) {
	tests := []struct {
		topN int
		want int
	}{
		{1, 40},
		{40, 40},
		{41, 41},
		{300, 300},
		{1000, 1000},
		{5000, 1000},
	}
	for _, tt := range tests {
		if got := efSearch(tt.topN); got != tt.want {
			t.Errorf("efSearch(%d) = %d, want %d", tt.topN, got, tt.want)
		}
	}
}

func TestSearch_SetError(t *testing.T) {
	d, fq := newTestDB(t)
	fq.execFn = func(_ string, _ ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("unrecognized configuration parameter")
	}
	fq.queryFn = func(_ string, _ ...any) (pgx.Rows, error) {
		t.Error("SELECT must not run when SET LOCAL fails")
		return &fakeRows{}, nil
	}

	if _, err := NewFrames(d).Search(context.Background(), []float32{1, 0, 0}, 10); err == nil {
		t.Fatal("expected error")
	}
	if last := fq.stmts[len(fq.stmts)-1]; last != "ROLLBACK" {
		t.Errorf("transaction must be rolled back, last statement %q", last)
	}
}

func TestSearch_BeginError(t *testing.T) {
	d, fq := newTestDB(t)
	fq.beginErr = errors.New("too many connections")

	if _, err := NewFrames(d).Search(context.Background(), []float32{1, 0, 0}, 10); err == nil {
		t.Fatal("expected error")
	}
	if len(fq.stmts) != 0 {
		t.Errorf("nothing must be sent without a transaction: %q", fq.stmts)
	}
}

func TestSearch_RowsError(t *testing.T) {
	d, fq := newTestDB(t)
	fq.queryFn = func(_ string, _ ...any) (pgx.Rows, error) {
		return &fakeRows{err: errors.New("canceling statement due to user request")}, nil
	}

	if _, err := NewFrames(d).Search(context.Background(), []float32{1, 0, 0}, 1); err == nil {
		t.Fatal("expected iteration error")
	}
}

func TestDeleteVideo_ReturnsRowsAffected(t *testing.T) {
	d, fq := newTestDB(t)
	fq.execFn = func(_ string, args ...any) (pgconn.CommandTag, error) {
		if args[0] != "v1" {
			t.Errorf("unexpected arg: %v", args[0])
		}
		return pgconn.NewCommandTag("DELETE 120"), nil
	}

	n, err := NewFrames(d).DeleteVideo(context.Background(), "v1")
	if err != nil || n != 120 {
		t.Fatalf("expected 120, nil; got %d, %v", n, err)
	}
}
