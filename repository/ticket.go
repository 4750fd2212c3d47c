package repository

import (
	"context"

	"github.com/queueflow/backend/domain"
)

// TicketRepository is the queue store. Tickets are append/update only; there
// is no destructive delete, terminal tickets remain for history.
type TicketRepository interface {
	// Create persists a new ticket and assigns its id and insertion sequence.
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	// ListActive returns waiting and called tickets for a department in FIFO
	// order (created_at ascending, insertion sequence as tie-break).
	ListActive(ctx context.Context, departmentID string) ([]domain.Ticket, error)
	ListByStaff(ctx context.Context, staffID string, statuses []domain.TicketStatus) ([]domain.Ticket, error)
	// SelectOldestWaiting returns the head of the department's waiting line,
	// or domain.ErrEmptyQueue when nothing is waiting.
	SelectOldestWaiting(ctx context.Context, departmentID string) (*domain.Ticket, error)
	// UpdateStatus persists the ticket's status, assignee and timestamps,
	// guarded by the status the caller observed. A concurrent change of the
	// row yields domain.ErrQueueBusy and no update.
	UpdateStatus(ctx context.Context, ticket *domain.Ticket, observed domain.TicketStatus) error
	SetSuggestedStaff(ctx context.Context, ticketID, staffID string) error
	// CountWorkload counts the staff member's active load: called tickets
	// assigned to them plus waiting tickets suggested to them.
	CountWorkload(ctx context.Context, staffID string) (int, error)
	// CountWaitingBefore counts waiting tickets in the department created
	// strictly before the given insertion sequence. Called tickets have left
	// the line and no longer hold a position.
	CountWaitingBefore(ctx context.Context, departmentID string, seq int64) (int, error)
}
