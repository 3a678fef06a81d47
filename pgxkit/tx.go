package pgxkit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// WithTx runs fn inside a transaction started on db. The contract matches
// sqlkit.WithTx: exactly one of Commit/Rollback runs on every path.
//
//   - fn returns nil: the transaction is committed, and a commit failure is
//     returned as-is.
//   - fn returns an error: the transaction is rolled back and fn's original
//     error is returned. If the rollback itself fails, both errors are
//     combined with [errors.Join], so errors.Is still matches the original.
//   - fn panics: the transaction is rolled back and the panic resumes.
//
// Beginning on a pgx.Tx creates a savepoint, so scopes nest.
//
// Example:
//
//	err := pgxkit.WithTx(ctx, pool, func(tx pgx.Tx) error {
//	    if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, amt, from); err != nil {
//	        return err
//	    }
//	    _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amt, to)
//	    return err
//	})
func WithTx(ctx context.Context, db Beginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	done := false
	defer func() {
		if !done {
			// fn panicked; roll back before the panic resumes.
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		done = true
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	done = true
	return tx.Commit(ctx)
}

// InTx is WithTx for units of work that produce a value. On any failure the
// zero value of T is returned alongside the error.
func InTx[T any](ctx context.Context, db Beginner, fn func(tx pgx.Tx) (T, error)) (T, error) {
	var out T
	err := WithTx(ctx, db, func(tx pgx.Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
