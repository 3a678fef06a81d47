package sqlkit

import (
	"context"
	"database/sql"
)

// Exec executes a statement that does not return rows (INSERT, UPDATE, DELETE, DDL).
//
// It forwards to the underlying [Execer]. On success it returns the driver's
// [sql.Result], which may support LastInsertId and RowsAffected depending on
// the database/driver.
//
// Exec does not attempt SQL rendering or placeholder rewriting; write your SQL
// exactly as your driver expects.
//
// Example:
//
//	// Given a *sql.DB (or *sql.Tx, *sql.Conn) in variable `db`:
//	ctx := context.Background()
//	res, err := sqlkit.Exec(ctx, db, `INSERT INTO users (email) VALUES (?)`, "a@example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, _ := res.RowsAffected()
//	fmt.Println("rows:", n)
//
// Notes:
//   - Use WithTx around multiple Exec/Query calls when you need atomicity.
//   - Not all drivers support LastInsertId; prefer RETURNING with Query/Get where available.
func Exec(ctx context.Context, e Execer, query string, args ...any) (sql.Result, error) {
	return e.ExecContext(ctx, query, args...)
}

// ExecAffected executes a statement and returns the number of rows it
// affected. An update that changes nothing is an error here: when the driver
// reports zero affected rows, ExecAffected returns [ErrNoEffect]. Use plain
// Exec when zero is acceptable.
func ExecAffected(ctx context.Context, e Execer, query string, args ...any) (int64, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoEffect
	}
	return n, nil
}

// ExecID executes an insert and returns the generated key via the driver's
// LastInsertId. It returns [ErrNoEffect] when zero rows were affected, and
// [ErrNoKey] when the statement took effect but the driver reported no key.
// Drivers that cannot report LastInsertId surface their own error; on such
// engines (PostgreSQL) use RETURNING with Get instead.
//
// Example:
//
//	id, err := sqlkit.ExecID(ctx, db, `INSERT INTO users (email) VALUES (?)`, email)
func ExecID(ctx context.Context, e Execer, query string, args ...any) (int64, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoEffect
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrNoKey
	}
	return id, nil
}

// ExecIDOr is ExecID with a fallback for the no-effect case: when zero rows
// were affected it returns fallback without consulting LastInsertId. A
// statement that took effect but produced no key still returns [ErrNoKey].
func ExecIDOr(ctx context.Context, e Execer, fallback int64, query string, args ...any) (int64, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return fallback, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrNoKey
	}
	return id, nil
}
