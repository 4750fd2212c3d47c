package domain

import (
	"fmt"
	"time"
)

// transitions lists the legal status edges. Anything absent is illegal.
var transitions = map[TicketStatus][]TicketStatus{
	StatusWaiting: {StatusCalled, StatusNoShow},
	StatusCalled:  {StatusCompleted, StatusNoShow},
}

// CanTransition reports whether the edge from -> to is legal.
func CanTransition(from, to TicketStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is the single place a ticket's status may change. It validates
// the edge, stamps the relevant timestamp exactly once and records the acting
// staff on a call. Callers are responsible for the single-active-ticket guard
// and ordering checks before invoking it.
func Transition(t *Ticket, to TicketStatus, staffID string, now time.Time) error {
	if t == nil {
		return ErrInvalidPayload
	}
	if !CanTransition(t.Status, to) {
		return NewError(ErrCodeInvalidTransition,
			fmt.Sprintf("cannot transition ticket %s from %s to %s", t.Number, t.Status, to))
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	switch to {
	case StatusCalled:
		t.AssignedStaffID = staffID
		ts := now
		t.CalledAt = &ts
	case StatusCompleted, StatusNoShow:
		// no_show closes the ticket too; completed_at is the closing timestamp.
		ts := now
		t.CompletedAt = &ts
	}
	t.Status = to
	return nil
}
