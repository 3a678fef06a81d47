package pgxkit

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx implements pgx.Tx and records lifecycle calls.
type fakeTx struct {
	commits     int
	rollbacks   int
	commitErr   error
	rollbackErr error
	execs       []string
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx: nested Begin not supported")
}
func (t *fakeTx) Commit(ctx context.Context) error   { t.commits++; return t.commitErr }
func (t *fakeTx) Rollback(ctx context.Context) error { t.rollbacks++; return t.rollbackErr }

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("fakeTx: CopyFrom not supported")
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("fakeTx: Prepare not supported")
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("fakeTx: Query not supported")
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                               { return nil }

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
	begins   int
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	b.begins++
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

func TestWithTx_Success_CommitsOnce(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}

	err := WithTx(context.Background(), db, func(tx pgx.Tx) error {
		_, err := tx.Exec(context.Background(), `UPDATE t SET a = 1`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, db.begins)
	assert.Equal(t, 1, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)
	assert.Equal(t, []string{`UPDATE t SET a = 1`}, tx.execs)
}

func TestWithTx_WorkError_RollsBackAndReturnsOriginal(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}

	sentinel := errors.New("insufficient funds")
	err := WithTx(context.Background(), db, func(tx pgx.Tx) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestWithTx_RollbackFailure_JoinsBothErrors(t *testing.T) {
	rbErr := errors.New("rollback failed")
	tx := &fakeTx{rollbackErr: rbErr}
	db := &fakeBeginner{tx: tx}

	sentinel := errors.New("work failed")
	err := WithTx(context.Background(), db, func(tx pgx.Tx) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.ErrorIs(t, err, rbErr)
}

func TestWithTx_CommitFailure_Returned(t *testing.T) {
	cErr := errors.New("commit failed")
	tx := &fakeTx{commitErr: cErr}
	db := &fakeBeginner{tx: tx}

	err := WithTx(context.Background(), db, func(tx pgx.Tx) error { return nil })
	require.ErrorIs(t, err, cErr)
	assert.Equal(t, 1, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)
}

func TestWithTx_BeginFailure_Returned(t *testing.T) {
	bErr := errors.New("begin failed")
	db := &fakeBeginner{beginErr: bErr}

	err := WithTx(context.Background(), db, func(tx pgx.Tx) error {
		t.Fatal("unit of work must not run")
		return nil
	})
	require.ErrorIs(t, err, bErr)
}

func TestWithTx_Panic_RollsBackAndResumes(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}

	require.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), db, func(tx pgx.Tx) error {
			panic("kaboom")
		})
	})
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestInTx_ReturnsValue(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}

	got, err := InTx(context.Background(), db, func(tx pgx.Tx) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, tx.commits)
}

func TestInTx_Error_ZeroValue(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}

	sentinel := errors.New("nope")
	got, err := InTx(context.Background(), db, func(tx pgx.Tx) (int, error) {
		return 7, sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Zero(t, got)
	assert.Equal(t, 1, tx.rollbacks)
}
