package domain

import "time"

// EventType identifies a ticket lifecycle notification.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketCalled    EventType = "ticket_called"
	EventTicketCompleted EventType = "ticket_completed"
	EventTicketNoShow    EventType = "ticket_no_show"
)

// TicketView is the derived read model returned by status reads and pushed to
// subscribers. Position and ETA are recomputed on every read, never stored.
type TicketView struct {
	Ticket
	Position             int `json:"position"`
	EstimatedWaitMinutes int `json:"estimated_wait_minutes"`
}

// Event is a single lifecycle notification fanned out to subscribers keyed by
// ticket and by department. Delivery is best-effort, at-most-once; the ticket
// status endpoint remains the source of truth.
type Event struct {
	ID           string     `json:"id"`
	Type         EventType  `json:"type"`
	TicketID     string     `json:"ticket_id"`
	DepartmentID string     `json:"department_id"`
	Ticket       TicketView `json:"ticket"`
	// Origin carries the emitting instance id so the cross-instance bridge
	// can skip events that were already delivered locally.
	Origin    string    `json:"origin,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}
