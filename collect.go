package sqlkit

import (
	"context"
)

// QueryMap executes the SQL query and collects the rows into a map keyed by
// key(row). When two rows produce the same key, the later row wins; use
// QueryGrouped when duplicates must be kept.
//
// Example:
//
//	byID, err := sqlkit.QueryMap(ctx, db, func(u User) int64 { return u.ID },
//	    `SELECT id, email FROM users`)
func QueryMap[K comparable, T any](ctx context.Context, q Querier, key func(T) K, query string, args ...any) (map[K]T, error) {
	out := make(map[K]T)
	err := Each(ctx, q, func(v T) error {
		out[key(v)] = v
		return nil
	}, query, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryGrouped executes the SQL query and groups the rows by key(row),
// preserving result order within each group.
//
// Example:
//
//	byOrg, err := sqlkit.QueryGrouped(ctx, db, func(u User) int64 { return u.OrgID },
//	    `SELECT id, org_id, email FROM users ORDER BY id`)
func QueryGrouped[K comparable, T any](ctx context.Context, q Querier, key func(T) K, query string, args ...any) (map[K][]T, error) {
	out := make(map[K][]T)
	err := Each(ctx, q, func(v T) error {
		k := key(v)
		out[k] = append(out[k], v)
		return nil
	}, query, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
