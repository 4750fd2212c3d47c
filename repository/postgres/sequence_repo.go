package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/repository"
)

type sequenceAllocator struct {
	pool *pgxpool.Pool
}

// NewSequenceAllocator returns a Postgres-backed sequence allocator with one
// counter row per department prefix.
func NewSequenceAllocator(pool *pgxpool.Pool) repository.SequenceAllocator {
	return &sequenceAllocator{pool: pool}
}

func (a *sequenceAllocator) Allocate(ctx context.Context, prefix string) (string, error) {
	// Single atomic read-modify-write; no select-max scan, no retry loop.
	// Concurrent callers each commit a distinct counter value or fail whole.
	const query = `
	INSERT INTO ticket_counters (prefix, value)
	VALUES ($1, 1)
	ON CONFLICT (prefix) DO UPDATE
	SET value = ticket_counters.value + 1
	RETURNING value
	`
	var value int64
	if err := a.pool.QueryRow(ctx, query, prefix).Scan(&value); err != nil {
		return "", domain.WrapError(domain.ErrCodeUnavailable, "sequence allocation failed", err)
	}
	return repository.FormatTicketNumber(prefix, value), nil
}
