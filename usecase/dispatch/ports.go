package dispatch

import "github.com/queueflow/backend/domain"

// EventSink receives lifecycle events for fan-out to live subscribers.
// Implementations must not block the caller; delivery is best-effort.
type EventSink interface {
	Publish(event domain.Event)
}

// ActivityLog records lifecycle events for history and statistics. Append
// failures are logged, never surfaced to the mutating caller.
type ActivityLog interface {
	Append(event domain.Event) error
}
