package hub

import (
	"time"

	"go.uber.org/zap"

	"github.com/queueflow/backend/domain"
)

// Config tunes subscriber buffering and the heartbeat deadline.
type Config struct {
	// BufferSize is each subscriber's send queue length. Publishing to a
	// full queue drops the event for that subscriber only.
	BufferSize int
	// HeartbeatTTL is how long a subscriber may stay silent before the
	// reaper drops it.
	HeartbeatTTL time.Duration
}

// Hub is the registry of live subscriber connections, keyed by ticket id for
// customer waiting screens and by department id for staff dashboards. It is
// an optimization, not the source of truth: delivery is best-effort and
// at-most-once, and a missed event is recoverable by re-polling the status
// endpoint.
type Hub struct {
	registry *registry
	cfg      Config
	logger   *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.HeartbeatTTL <= 0 {
		cfg.HeartbeatTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		registry: newRegistry(),
		cfg:      cfg,
		logger:   logger,
	}
}

// SubscribeTicket registers a subscriber for one ticket's events.
func (h *Hub) SubscribeTicket(ticketID string) *Subscriber {
	sub := newSubscriber(keyTicket, ticketID, h.cfg.BufferSize)
	h.registry.add(sub)
	return sub
}

// SubscribeDepartment registers a subscriber for a department channel.
func (h *Hub) SubscribeDepartment(departmentID string) *Subscriber {
	sub := newSubscriber(keyDepartment, departmentID, h.cfg.BufferSize)
	h.registry.add(sub)
	return sub
}

// Unsubscribe removes the subscriber and closes its event channel. Safe to
// call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.registry.remove(sub)
	sub.close()
}

// Publish fans the event out to the ticket's subscribers and the department
// channel. It never blocks on a slow consumer: each subscriber owns a send
// queue and a full queue means the event is dropped for that subscriber.
func (h *Hub) Publish(event domain.Event) {
	for _, sub := range h.registry.match(event.TicketID, event.DepartmentID) {
		select {
		case <-sub.done:
			// dropped between the snapshot and the send
		case sub.events <- event:
		default:
			h.logger.Debug("subscriber queue full, event dropped",
				zap.String("subscriber_id", sub.ID),
				zap.String("event_id", event.ID))
		}
	}
}

// Reap drops subscribers whose last heartbeat is older than the TTL.
// Dropping a connection never affects ticket state.
func (h *Hub) Reap() int {
	deadline := time.Now().Add(-h.cfg.HeartbeatTTL)
	stale := h.registry.staleSince(deadline)
	for _, sub := range stale {
		h.registry.remove(sub)
		sub.close()
		h.logger.Info("reaped silent subscriber",
			zap.String("subscriber_id", sub.ID),
			zap.String("key", sub.key))
	}
	return len(stale)
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	return h.registry.len()
}
