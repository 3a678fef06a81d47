package sqlkit

import (
	"context"
)

// ExecEach applies one parameterized statement to every element of items, in
// order, through a single prepared statement. bind produces the argument list
// for one element. It returns the total number of rows affected.
//
// The statement is prepared once and closed on every exit path. A bind or
// execution failure propagates immediately and aborts the remaining elements;
// elements already executed stay applied unless the whole call runs inside
// WithTx. database/sql has no wire-level batch API, so each element is one
// round trip; for true batched round trips on PostgreSQL, use
// pgxkit.ExecBatch.
//
// Example:
//
//	n, err := sqlkit.ExecEach(ctx, db, `INSERT INTO events (kind, payload) VALUES (?, ?)`,
//	    events, func(e Event) []any { return []any{e.Kind, e.Payload} })
func ExecEach[T any](ctx context.Context, p Preparer, query string, items []T, bind func(T) []any) (affected int64, err error) {
	if len(items) == 0 {
		return 0, nil
	}

	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	// Propagate stmt.Close() error if nothing else failed.
	defer func() {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, item := range items {
		res, execErr := stmt.ExecContext(ctx, bind(item)...)
		if execErr != nil {
			return affected, execErr
		}
		n, raErr := res.RowsAffected()
		if raErr != nil {
			return affected, raErr
		}
		affected += n
	}
	return affected, nil
}
