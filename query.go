package sqlkit

import (
	"context"
)

// Query executes the SQL query and scans all result rows into a slice of T.
//
// T may be a struct (supports `db` tags and ,inline), a primitive, or any type
// implementing [sql.Scanner]. Column mapping prefers `db:"name"` tags;
// otherwise it matches case-insensitive field names.
//
// Extra columns are ignored and missing columns set zero values. Safe for
// concurrent use; the scan-plan cache behind it is concurrency-safe.
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
//	users, err := sqlkit.Query[User](ctx, db, `SELECT id, email FROM users ORDER BY id`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, u := range users {
//	    fmt.Println(u.ID, u.Email)
//	}
func Query[T any](ctx context.Context, q Querier, query string, args ...any) (out []T, err error) {
	err = Each(ctx, q, func(v T) error {
		out = append(out, v)
		return nil
	}, query, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Each executes the SQL query and invokes fn once per result row, in result
// order, scanning each row into a T first. It stops at the first fn error and
// returns it. Use Each instead of Query when the result set is large enough
// that holding []T in memory matters.
//
// Example:
//
//	err := sqlkit.Each(ctx, db, func(u User) error {
//	    return index.Add(u)
//	}, `SELECT id, email FROM users`)
func Each[T any](ctx context.Context, q Querier, fn func(T) error, query string, args ...any) (err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	// Propagate rows.Close() error if nothing else failed.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	m := getMapper() // lazy, thread-safe
	for rows.Next() {
		v, scanErr := scanRow[T](m, rows)
		if scanErr != nil {
			return scanErr
		}
		if ferr := fn(v); ferr != nil {
			return ferr
		}
	}
	return rows.Err()
}

// Exists reports whether the query yields at least one row. Only row presence
// is inspected; selected columns are never scanned, so `SELECT 1 FROM ...`
// works fine.
func Exists(ctx context.Context, q Querier, query string, args ...any) (ok bool, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if rows.Next() {
		return true, nil
	}
	return false, rows.Err()
}
