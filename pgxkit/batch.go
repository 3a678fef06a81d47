package pgxkit

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// ExecBatch applies one parameterized statement to every element of items, in
// order, flushing the queued executions to the server every size elements.
// bind produces the argument list for one element. It returns the total
// number of rows affected across all flushes.
//
// size <= 0 (or size >= len(items)) sends the whole sequence as a single
// batch. Each flush is one server round trip; smaller sizes bound the memory
// held by a pending batch at the cost of more round trips. For n elements,
// exactly ceil(n/size) flushes occur, each carrying the elements in input
// order.
//
// A failure while executing a flush propagates immediately and aborts the
// remaining elements. Flushes already applied are NOT rolled back — wrap the
// call in WithTx when all-or-nothing behavior is required:
//
//	err := pgxkit.WithTx(ctx, pool, func(tx pgx.Tx) error {
//	    _, err := pgxkit.ExecBatch(ctx, tx,
//	        `INSERT INTO events (kind, payload) VALUES ($1, $2)`,
//	        events, func(e Event) []any { return []any{e.Kind, e.Payload} }, 500)
//	    return err
//	})
func ExecBatch[T any](ctx context.Context, db Batcher, query string, items []T, bind func(T) []any, size int) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if size <= 0 {
		size = len(items)
	}

	var affected int64
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, bind(item)...)
		if batch.Len() == size {
			n, err := flush(ctx, db, batch)
			affected += n
			if err != nil {
				return affected, err
			}
			batch = &pgx.Batch{}
		}
	}
	if batch.Len() > 0 {
		n, err := flush(ctx, db, batch)
		affected += n
		if err != nil {
			return affected, err
		}
	}
	return affected, nil
}

// flush sends one batch and consumes every queued result before closing, so
// per-statement failures surface instead of being masked by Close.
func flush(ctx context.Context, db Batcher, batch *pgx.Batch) (int64, error) {
	br := db.SendBatch(ctx, batch)
	var affected int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return affected, err
		}
		affected += tag.RowsAffected()
	}
	return affected, br.Close()
}
