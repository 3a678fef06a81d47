package sqlkit

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
)

// queryHandler serves QueryContext calls with columns and row data.
type queryHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

// execHandler serves ExecContext calls, both direct and through prepared statements.
type execHandler func(query string, args []driver.NamedValue) (driver.Result, error)

// fakeDB is an in-memory database/sql driver for tests. Handlers supply
// query/exec behavior; counters record statement and transaction lifecycle
// events so tests can assert on them.
type fakeDB struct {
	query queryHandler
	exec  execHandler

	beginErr    error
	commitErr   error
	rollbackErr error

	mu         sync.Mutex
	prepares   int
	stmtCloses int
	commits    int
	rollbacks  int
}

func (f *fakeDB) open(t *testing.T) *sql.DB {
	t.Helper()
	db := sql.OpenDB(&fakeConnector{f: f})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func (f *fakeDB) counts() (prepares, stmtCloses, commits, rollbacks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prepares, f.stmtCloses, f.commits, f.rollbacks
}

type fakeConnector struct{ f *fakeDB }

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	return &fakeConn{f: c.f}, nil
}
func (c *fakeConnector) Driver() driver.Driver { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("fakeDriver.Open should not be called; use sql.OpenDB with connector")
}

type fakeConn struct{ f *fakeDB }

func (c *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *fakeConn) Close() error                        { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.f.query == nil {
		return nil, errors.New("fakeDB: unexpected QueryContext")
	}
	cols, data, err := c.f.query(query, args)
	if err != nil {
		return nil, err
	}
	return &fakeRows{cols: cols, data: data}, nil
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if c.f.exec == nil {
		return nil, errors.New("fakeDB: unexpected ExecContext")
	}
	return c.f.exec(query, args)
}

func (c *fakeConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if c.f.exec == nil {
		return nil, errors.New("fakeDB: unexpected PrepareContext")
	}
	c.f.mu.Lock()
	c.f.prepares++
	c.f.mu.Unlock()
	return &fakeStmt{f: c.f, query: query}, nil
}

func (c *fakeConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if c.f.beginErr != nil {
		return nil, c.f.beginErr
	}
	return &fakeTx{f: c.f}, nil
}

type fakeTx struct{ f *fakeDB }

func (tx *fakeTx) Commit() error {
	tx.f.mu.Lock()
	tx.f.commits++
	tx.f.mu.Unlock()
	return tx.f.commitErr
}

func (tx *fakeTx) Rollback() error {
	tx.f.mu.Lock()
	tx.f.rollbacks++
	tx.f.mu.Unlock()
	return tx.f.rollbackErr
}

type fakeStmt struct {
	f     *fakeDB
	query string
}

func (s *fakeStmt) Close() error {
	s.f.mu.Lock()
	s.f.stmtCloses++
	s.f.mu.Unlock()
	return nil
}

func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return s.f.exec(s.query, named)
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, errors.New("fakeStmt.Query not supported")
}

type fakeRows struct {
	cols []string
	data [][]driver.Value
	i    int
}

func (r *fakeRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

// fakeResult implements driver.Result for exec tests.
type fakeResult struct {
	lastID int64
	rows   int64
	liErr  error
	raErr  error
}

func (r fakeResult) LastInsertId() (int64, error) { return r.lastID, r.liErr }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.raErr }

// newQueryDB builds a *sql.DB serving only queries, the common case.
func newQueryDB(t *testing.T, h queryHandler) *sql.DB {
	t.Helper()
	return (&fakeDB{query: h}).open(t)
}
