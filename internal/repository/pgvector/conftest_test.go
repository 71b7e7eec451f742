package pgvector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const testVectorDim = 3

type execCall struct {
	sql  string
	args []any
}

// fakeQuerier records statements and replays canned rows.
// stmts logs every statement in order, including BEGIN/COMMIT/ROLLBACK.
type fakeQuerier struct {
	stmts      []string
	beginErr   error
	execs      []execCall
	execFn     func(sql string, args ...any) (pgconn.CommandTag, error)
	queryFn    func(sql string, args ...any) (pgx.Rows, error)
	queryRowFn func(sql string, args ...any) pgx.Row
	batchErrAt int // 1-based queued statement that fails; 0 = none
	batches    []*pgx.Batch
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execFn != nil {
		return f.execFn(sql, args...)
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.stmts = append(f.stmts, sql)
	if f.queryFn != nil {
		return f.queryFn(sql, args...)
	}
	return &fakeRows{}, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if f.queryRowFn != nil {
		return f.queryRowFn(sql, args...)
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (f *fakeQuerier) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b)
	return &fakeBatchResults{failAt: f.batchErrAt}
}

func (f *fakeQuerier) Begin(_ context.Context) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.stmts = append(f.stmts, "BEGIN")
	return &fakeTx{parent: f}, nil
}

// fakeTx runs statements through its parent querier so they share one log.
// Methods not overridden panic through the nil embedded pgx.Tx.
type fakeTx struct {
	pgx.Tx
	parent *fakeQuerier
	done   bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.parent.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.parent.Query(ctx, sql, args...)
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.finish("COMMIT")
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.finish("ROLLBACK")
	return nil
}

func (t *fakeTx) finish(stmt string) {
	if !t.done {
		t.done = true
		t.parent.stmts = append(t.parent.stmts, stmt)
	}
}

type fakeBatchResults struct {
	n      int
	failAt int
	closed bool
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	b.n++
	if b.n == b.failAt {
		return pgconn.CommandTag{}, errors.New("duplicate key value violates unique constraint")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) { return &fakeRows{}, nil }
func (b *fakeBatchResults) QueryRow() pgx.Row        { return fakeRow{err: pgx.ErrNoRows} }
func (b *fakeBatchResults) Close() error {
	b.closed = true
	return nil
}

// fakeRow scans one canned row.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.vals, dest)
}

// fakeRows iterates canned rows.
type fakeRows struct {
	rows [][]any
	i    int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return assign(r.rows[r.i-1], dest) }

func (r *fakeRows) Values() ([]any, error) { return r.rows[r.i-1], nil }

func assign(vals, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(vals), len(dest))
	}
	for i, v := range vals {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *int:
			*d = v.(int)
		case *int64:
			*d = v.(int64)
		case *bool:
			*d = v.(bool)
		default:
			return fmt.Errorf("scan: unsupported target %T", dest[i])
		}
	}
	return nil
}

func newTestDB(t *testing.T) (*DB, *fakeQuerier) {
	t.Helper()
	fq := &fakeQuerier{}
	return &DB{q: fq, dim: testVectorDim}, fq
}
