package dispatch

import (
	"context"
	"sync"
)

// departmentLocks serializes mutating operations per department. Two
// departments never contend; within one, creation and call-next take turns.
type departmentLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newDepartmentLocks() *departmentLocks {
	return &departmentLocks{locks: make(map[string]chan struct{})}
}

// acquire takes the department's lock, giving up when the context expires so
// a staff client gets a retryable Busy instead of blocking indefinitely.
func (d *departmentLocks) acquire(ctx context.Context, departmentID string) (func(), error) {
	d.mu.Lock()
	sem, ok := d.locks[departmentID]
	if !ok {
		sem = make(chan struct{}, 1)
		d.locks[departmentID] = sem
	}
	d.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
