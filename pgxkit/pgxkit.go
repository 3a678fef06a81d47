// Package pgxkit carries the sqlkit transaction scope and batched-update
// executor over to jackc/pgx/v5. Unlike database/sql, pgx natively supports
// queuing many parameter sets into one batch and sending them in a single
// round trip, so this is where ExecBatch lives in its real form.
//
// Helpers accept narrow interfaces satisfied by *pgxpool.Pool, *pgx.Conn, and
// pgx.Tx, so the same code works with a pool, a dedicated connection, or
// inside a transaction.
package pgxkit

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Beginner is implemented by *pgxpool.Pool, *pgx.Conn, and pgx.Tx (nested
// transactions become savepoints). It starts a transaction.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Batcher is implemented by *pgxpool.Pool, *pgx.Conn, and pgx.Tx. It sends a
// queued batch to the server in one round trip.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ Beginner = (*pgxpool.Pool)(nil)
	_ Beginner = (*pgx.Conn)(nil)
	_ Beginner = pgx.Tx(nil)
	_ Batcher  = (*pgxpool.Pool)(nil)
	_ Batcher  = (*pgx.Conn)(nil)
	_ Batcher  = pgx.Tx(nil)
)
