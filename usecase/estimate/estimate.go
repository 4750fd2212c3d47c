package estimate

import (
	"context"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/repository"
)

// DefaultServiceMinutes is used when neither the service nor the department
// carries an average duration.
const DefaultServiceMinutes = 15

// Estimator derives queue position and ETA from queue store reads. Results
// are display hints recomputed on every read, never authoritative state.
type Estimator struct {
	tickets        repository.TicketRepository
	catalog        repository.CatalogRepository
	defaultMinutes int
}

func New(tickets repository.TicketRepository, catalog repository.CatalogRepository, defaultMinutes int) *Estimator {
	if defaultMinutes <= 0 {
		defaultMinutes = DefaultServiceMinutes
	}
	return &Estimator{
		tickets:        tickets,
		catalog:        catalog,
		defaultMinutes: defaultMinutes,
	}
}

// View builds the derived read model for a ticket. Position and ETA are zero
// for any ticket that is no longer waiting.
func (e *Estimator) View(ctx context.Context, ticket *domain.Ticket) (domain.TicketView, error) {
	view := domain.TicketView{Ticket: *ticket}
	if ticket.Status != domain.StatusWaiting {
		return view, nil
	}

	// Only waiting tickets ahead count: a called ticket has left the line,
	// so the next customer sees position 1. The wait covers the people
	// ahead, not the ticket's own service time.
	ahead, err := e.tickets.CountWaitingBefore(ctx, ticket.DepartmentID, ticket.Seq)
	if err != nil {
		return view, err
	}
	view.Position = ahead + 1
	view.EstimatedWaitMinutes = ahead * e.serviceMinutes(ctx, ticket)
	return view, nil
}

func (e *Estimator) serviceMinutes(ctx context.Context, ticket *domain.Ticket) int {
	if svc, err := e.catalog.GetService(ctx, ticket.ServiceID); err == nil && svc.AverageDurationMinutes > 0 {
		return svc.AverageDurationMinutes
	}
	if dept, err := e.catalog.GetDepartment(ctx, ticket.DepartmentID); err == nil && dept.AverageServiceMinutes > 0 {
		return dept.AverageServiceMinutes
	}
	return e.defaultMinutes
}
