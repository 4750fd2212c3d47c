package repository

import (
	"context"
	"fmt"
)

// SequenceAllocator mints department-prefixed ticket numbers. Allocate never
// returns a number it has issued before, regardless of concurrent callers.
// Failure is transient and retryable; an allocation either commits or it
// doesn't, there is no partial consumption.
type SequenceAllocator interface {
	Allocate(ctx context.Context, prefix string) (string, error)
}

// FormatTicketNumber renders the public ticket number contract:
// one-letter prefix followed by a zero-padded 3-digit counter. Counters past
// 999 widen the numeric field rather than wrapping.
func FormatTicketNumber(prefix string, counter int64) string {
	return fmt.Sprintf("%s%03d", prefix, counter)
}
