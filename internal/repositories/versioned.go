package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/cardpoint/onboarding-service/internal/utils"
)

// maxUpdateRetries bounds the compare-and-swap loop shared by the postgres
// and redis session stores.
const maxUpdateRetries = 5

// Versioned is a row guarded by a row_version counter.
type Versioned interface {
	comparable
	GetID() string
	GetRowVersion() int64
	SetRowVersion(int64)
}

// casWrite persists entity only if the stored version still equals
// expected; zero rows affected means another writer got there first.
type casWrite[T Versioned] func(ctx context.Context, entity T, expected int64) (pgconn.CommandTag, error)

// versionedTable reads one row type by id and updates it under
// optimistic locking.
type versionedTable[T Versioned] struct {
	db         DB
	selectByID string
	scan       func(pgx.Row) (T, error)
}

func newVersionedTable[T Versioned](db DB, selectByID string, scan func(pgx.Row) (T, error)) versionedTable[T] {
	return versionedTable[T]{db: db, selectByID: selectByID, scan: scan}
}

func (t versionedTable[T]) byID(ctx context.Context, id string) (T, error) {
	return t.scan(t.db.QueryRow(ctx, t.selectByID, id))
}

func (t versionedTable[T]) update(ctx context.Context, id string, mutate func(T) error, write casWrite[T]) (T, error) {
	return casLoop(ctx, id, t.byID, mutate, write)
}

// casLoop re-reads the row on every conflict so mutate always runs
// against the latest committed state. A mutate error aborts without
// writing.
func casLoop[T Versioned](
	ctx context.Context,
	id string,
	load func(context.Context, string) (T, error),
	mutate func(T) error,
	write casWrite[T],
) (T, error) {
	var zero T
	for attempt := 1; attempt <= maxUpdateRetries; attempt++ {
		current, err := load(ctx, id)
		if err != nil {
			return zero, err
		}
		if current == zero {
			return zero, pgx.ErrNoRows
		}

		seen := current.GetRowVersion()
		if err := mutate(current); err != nil {
			return zero, err
		}

		tag, err := write(ctx, current, seen)
		if err != nil {
			return zero, err
		}
		if tag.RowsAffected() == 1 {
			current.SetRowVersion(seen + 1)
			return current, nil
		}
		utils.Logger.WithField("id", id).Debugf("row_version %d is stale (attempt %d)", seen, attempt)
	}
	return zero, fmt.Errorf("%w: too much contention updating %q", utils.ErrRowVersionConflict, id)
}
