package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

const carLockNamespace = "car:"

// AdvisoryLocker serialises booking writes per car with transaction-scoped
// Postgres advisory locks. Every check-then-write sequence for a car runs
// inside the locked transaction, so two writers for the same car cannot both
// pass the availability check.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// WithCarLock locks every car in carIDs (sorted, to keep a global lock order),
// then runs fn with the transaction in its context. Locks are released on
// commit or rollback. Nested calls join the outer transaction; Postgres
// advisory locks are re-entrant within a session.
func (l *AdvisoryLocker) WithCarLock(ctx context.Context, carIDs []string, fn func(ctx context.Context) error) error {
	keys := lockKeys(carIDs)

	return WithTx(ctx, l.pool, func(ctx context.Context) error {
		q := Conn(ctx, l.pool)
		for _, key := range keys {
			if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, carLockNamespace+key); err != nil {
				return fmt.Errorf("acquire lock for car %s: %w", key, err)
			}
		}
		return fn(ctx)
	})
}

// lockKeys drops blanks and duplicates and sorts the rest.
func lockKeys(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
