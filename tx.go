package sqlkit

import (
	"context"
	"database/sql"
	"errors"
)

// WithTx runs fn inside a transaction started on db.
//
// The transaction suspends auto-commit on its connection for the duration of
// fn; the driver restores the connection's prior mode when the transaction
// ends, on every path. WithTx guarantees exactly one of Commit/Rollback runs:
//
//   - fn returns nil: the transaction is committed, and a commit failure is
//     returned as-is.
//   - fn returns an error: the transaction is rolled back and fn's original
//     error is returned. If the rollback itself fails, both errors are
//     combined with [errors.Join], so errors.Is still matches the original.
//   - fn panics: the transaction is rolled back and the panic resumes.
//
// opts may be nil for the driver's default isolation. fn must perform all its
// database work through tx; using db inside fn escapes the transaction.
//
// Example:
//
//	err := sqlkit.WithTx(ctx, db, nil, func(tx *sql.Tx) error {
//	    if _, err := sqlkit.ExecAffected(ctx, tx, `UPDATE accounts SET balance = balance - ? WHERE id = ?`, amt, from); err != nil {
//	        return err
//	    }
//	    _, err := sqlkit.ExecAffected(ctx, tx, `UPDATE accounts SET balance = balance + ? WHERE id = ?`, amt, to)
//	    return err
//	})
func WithTx(ctx context.Context, db Beginner, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	done := false
	defer func() {
		if !done {
			// fn panicked; roll back before the panic resumes.
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		done = true
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	done = true
	return tx.Commit()
}

// InTx is WithTx for units of work that produce a value. On any failure the
// zero value of T is returned alongside the error; the rollback contract is
// identical to WithTx.
//
// Example:
//
//	order, err := sqlkit.InTx(ctx, db, nil, func(tx *sql.Tx) (Order, error) {
//	    id, err := sqlkit.ExecID(ctx, tx, `INSERT INTO orders (user_id) VALUES (?)`, userID)
//	    if err != nil {
//	        return Order{}, err
//	    }
//	    return sqlkit.Get[Order](ctx, tx, `SELECT id, user_id, state FROM orders WHERE id = ?`, id)
//	})
func InTx[T any](ctx context.Context, db Beginner, opts *sql.TxOptions, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var out T
	err := WithTx(ctx, db, opts, func(tx *sql.Tx) error {
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
