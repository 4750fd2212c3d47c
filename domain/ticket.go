package domain

import "time"

// TicketStatus is the closed set of queue ticket states.
type TicketStatus string

const (
	StatusWaiting   TicketStatus = "waiting"
	StatusCalled    TicketStatus = "called"
	StatusCompleted TicketStatus = "completed"
	StatusNoShow    TicketStatus = "no_show"
)

// Valid reports whether the status is one of the known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusCalled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether the status closes the ticket.
func (s TicketStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow
}

// Customer holds the registrant details captured at ticket creation.
// Immutable after the ticket is created.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Ticket represents a customer's place in a department's service line.
type Ticket struct {
	ID               string       `json:"id"`
	Number           string       `json:"number"`
	DepartmentID     string       `json:"department_id"`
	ServiceID        string       `json:"service_id"`
	Customer         Customer     `json:"customer"`
	Status           TicketStatus `json:"status"`
	AssignedStaffID  string       `json:"assigned_staff_id,omitempty"`
	SuggestedStaffID string       `json:"suggested_staff_id,omitempty"`
	// Seq is the store-assigned insertion sequence used to break
	// created_at ties so FIFO ordering is never ambiguous.
	Seq         int64      `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Active reports whether the ticket still occupies a place in the queue.
func (t *Ticket) Active() bool {
	return t != nil && (t.Status == StatusWaiting || t.Status == StatusCalled)
}
