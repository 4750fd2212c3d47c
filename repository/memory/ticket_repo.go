package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/queueflow/backend/domain"
)

// TicketRepository is an in-memory queue store used by tests and standalone
// runs. It honors the same CAS and ordering contract as the Postgres store.
type TicketRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Ticket
	nextSeq int64
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{byID: make(map[string]*domain.Ticket)}
}

func (r *TicketRepository) Create(_ context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket == nil {
		return nil, domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = domain.StatusWaiting
	}
	r.nextSeq++
	ticket.Seq = r.nextSeq
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}

	stored := *ticket
	r.byID[ticket.ID] = &stored
	return ticket, nil
}

func (r *TicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *TicketRepository) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.byID {
		if stored.Number == number {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

func (r *TicketRepository) ListActive(_ context.Context, departmentID string) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []domain.Ticket
	for _, stored := range r.byID {
		if stored.DepartmentID == departmentID && stored.Active() {
			tickets = append(tickets, *stored)
		}
	}
	sortFIFO(tickets)
	return tickets, nil
}

func (r *TicketRepository) ListByStaff(_ context.Context, staffID string, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	wanted := make(map[domain.TicketStatus]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []domain.Ticket
	for _, stored := range r.byID {
		if stored.AssignedStaffID != staffID {
			continue
		}
		if _, ok := wanted[stored.Status]; ok {
			tickets = append(tickets, *stored)
		}
	}
	sortFIFO(tickets)
	return tickets, nil
}

func (r *TicketRepository) SelectOldestWaiting(ctx context.Context, departmentID string) (*domain.Ticket, error) {
	active, err := r.ListActive(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].Status == domain.StatusWaiting {
			copied := active[i]
			return &copied, nil
		}
	}
	return nil, domain.ErrEmptyQueue
}

func (r *TicketRepository) UpdateStatus(_ context.Context, ticket *domain.Ticket, observed domain.TicketStatus) error {
	if ticket == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[ticket.ID]
	if !ok {
		return domain.ErrTicketNotFound
	}
	if stored.Status != observed {
		return domain.ErrQueueBusy
	}
	stored.Status = ticket.Status
	stored.AssignedStaffID = ticket.AssignedStaffID
	stored.CalledAt = ticket.CalledAt
	stored.CompletedAt = ticket.CompletedAt
	return nil
}

func (r *TicketRepository) SetSuggestedStaff(_ context.Context, ticketID, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[ticketID]
	if !ok {
		return domain.ErrTicketNotFound
	}
	stored.SuggestedStaffID = staffID
	return nil
}

func (r *TicketRepository) CountWorkload(_ context.Context, staffID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, stored := range r.byID {
		switch {
		case stored.Status == domain.StatusCalled && stored.AssignedStaffID == staffID:
			count++
		case stored.Status == domain.StatusWaiting && stored.SuggestedStaffID == staffID:
			count++
		}
	}
	return count, nil
}

func (r *TicketRepository) CountWaitingBefore(_ context.Context, departmentID string, seq int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, stored := range r.byID {
		if stored.DepartmentID == departmentID && stored.Status == domain.StatusWaiting && stored.Seq < seq {
			count++
		}
	}
	return count, nil
}

func sortFIFO(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].Seq < tickets[j].Seq
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
}
