package memory

import (
	"context"
	"sync"

	"github.com/queueflow/backend/repository"
)

// SequenceAllocator keeps one monotonic counter per prefix behind a mutex.
type SequenceAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{counters: make(map[string]int64)}
}

func (a *SequenceAllocator) Allocate(_ context.Context, prefix string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[prefix]++
	return repository.FormatTicketNumber(prefix, a.counters[prefix]), nil
}
