package sqlkit

import (
	"context"
	"database/sql"
	"errors"
)

// Get executes the SQL query and scans the first row into a value of type T.
//
// It returns [sql.ErrNoRows] if the query yields no rows and does not enforce
// "exactly one row" beyond the first; if more rows exist, they are ignored.
// You should use LIMIT 1 (or an equivalent WHERE clause) when you require
// at-most-one row.
//
// T may be a struct (supports `db` tags and ,inline), a primitive, or any type
// implementing [sql.Scanner]. Column mapping prefers `db:"name"` tags;
// otherwise it matches case-insensitive field names.
//
// Example:
//
//	// Given a *sql.DB (or *sql.Tx, *sql.Conn) in variable `db`:
//	type User struct {
//	    ID    int64  `db:"id"`
//	    Email string `db:"email"`
//	}
//
//	ctx := context.Background()
//	u, err := sqlkit.Get[User](ctx, db, `SELECT id, email FROM users WHERE id = $1`, 42)
//	if err != nil {
//	    if errors.Is(err, sql.ErrNoRows) {
//	        // handle not found
//	    } else {
//	        // handle other errors
//	    }
//	}
//	// use u
func Get[T any](ctx context.Context, q Querier, query string, args ...any) (out T, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return out, err
	}
	// Ensure Close error is propagated if no earlier error occurred.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !rows.Next() {
		if ne := rows.Err(); ne != nil {
			return out, ne
		}
		return out, sql.ErrNoRows
	}

	m := getMapper() // lazy, thread-safe
	v, scanErr := scanRow[T](m, rows)
	if scanErr != nil {
		return out, scanErr
	}
	return v, nil
}

// GetOr is Get with a fallback: when the query yields no rows it returns
// fallback instead of [sql.ErrNoRows]. Every other failure (bad SQL, scan
// errors, driver errors) still propagates.
//
// Example:
//
//	n, err := sqlkit.GetOr[int64](ctx, db, 0,
//	    `SELECT quota FROM plans WHERE org_id = $1`, orgID)
func GetOr[T any](ctx context.Context, q Querier, fallback T, query string, args ...any) (T, error) {
	out, err := Get[T](ctx, q, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	return out, err
}

// GetMaybe is Get with an absent marker: ok reports whether a row matched, and
// the zero-rows case is not an error. Every other failure still propagates.
//
// Example:
//
//	u, ok, err := sqlkit.GetMaybe[User](ctx, db,
//	    `SELECT id, email FROM users WHERE email = $1`, email)
//	if err != nil {
//	    return err
//	}
//	if !ok {
//	    // no such user
//	}
func GetMaybe[T any](ctx context.Context, q Querier, query string, args ...any) (out T, ok bool, err error) {
	out, err = Get[T](ctx, q, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		return out, false, err
	}
	return out, true, nil
}
