/*
Package sqlkit is a minimal, stdlib-style convenience layer over database/sql.
You write plain SQL; sqlkit removes the repetitive row-mapping, single-row,
rows-affected, and transaction boilerplate with a tiny, predictable API.

# Overview

sqlkit preserves database/sql semantics while adding ergonomic helpers:

  - Get / GetOr / GetMaybe — fetch a single row, with a raised error, a
    fallback value, or an absent marker when no row matches.
  - Query / Each / Exists — fetch all rows into a slice, stream rows through a
    callback, or test for at least one row.
  - QueryMap / QueryGrouped — collect rows keyed by a caller-supplied function.
  - Exec / ExecAffected / ExecID / ExecIDOr — execute updates, optionally
    requiring a non-zero affected count or a generated key.
  - ExecEach — apply one parameterized update to every element of a slice
    through a single prepared statement.
  - WithTx / InTx — run a unit of work inside a transaction that commits on
    success and rolls back on failure.

Helpers accept narrow interfaces (Querier, Execer, Preparer, Beginner)
implemented by *sql.DB, *sql.Tx, and *sql.Conn, so the same code runs inside
or outside a transaction.

The companion package pgxkit provides the same transaction scope plus a true
batched-update executor for jackc/pgx/v5, where the driver natively supports
queuing many parameter sets into one round trip.

# Mapping rules

  - Fields bind by `db:"name"` first; otherwise case-insensitive field ←→ column name.
  - Nested structs can be flattened with `db:",inline"`.
  - If a destination type (or field) implements sql.Scanner, its Scan method receives the driver value.
  - Primitives (bool, numbers, string, []byte, time.Time, sql.RawBytes) are supported directly.
  - Extra columns are ignored; missing columns yield zero values (favors robustness).

On first use of a (Type, ColumnSet) pair, sqlkit builds a scan plan and caches
it in a concurrency-safe map; subsequent scans reuse the plan and avoid
reflection on the hot path.

# Error handling

  - Get returns sql.ErrNoRows when no row matches; GetOr and GetMaybe convert
    that one case into a fallback value or an absent marker.
  - ExecAffected returns ErrNoEffect when an update changes zero rows.
  - ExecID returns ErrNoKey when the driver reports no generated key.
  - All other driver errors propagate unmodified; sqlkit adds no retries and
    no error translation.
  - WithTx rolls back and returns the unit of work's original error; if the
    rollback itself fails, both errors are joined so neither is lost.

# Compatibility

sqlkit works with any database/sql driver (PostgreSQL, MySQL, SQLite, SQL
Server, Oracle). It does not parse, validate, or rewrite SQL or placeholders;
write queries exactly as your driver expects. Generated keys use the driver's
LastInsertId; on engines without it (PostgreSQL), use RETURNING with Get.

# Usage notes

Prefer explicit column lists over SELECT * to keep mapping stable. Add LIMIT 1
(or the equivalent) when you expect a single row. Use contexts to bound query
timeouts. Every statement and row cursor the helpers open is released on every
exit path, including failures; no resource outlives its helper call. The
helpers are synchronous and add no goroutines — if you share one connection
across goroutines, serialization is your responsibility.

sqlkit is intended for production systems that value clarity over abstraction.
It keeps the API small and predictable while giving you full control over your
SQL.
*/
package sqlkit
