package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/repository"
	"github.com/queueflow/backend/usecase/estimate"
)

// RoleAdmin may complete or cancel tickets it is not assigned to.
const RoleAdmin = "admin"

// Config tunes dispatcher behavior.
type Config struct {
	// AutoAssign enables the advisory assignment policy at registration.
	AutoAssign bool
	// LockTimeout bounds how long a mutation waits for its department lock
	// before returning a retryable Busy.
	LockTimeout time.Duration
}

// Dispatcher orchestrates ticket creation and the staff pull model. All
// status changes go through domain.Transition; all mutations of one
// department are serialized by a per-department lock.
type Dispatcher struct {
	tickets   repository.TicketRepository
	catalog   repository.CatalogRepository
	sequence  repository.SequenceAllocator
	estimator *estimate.Estimator
	sink      EventSink
	journal   ActivityLog
	locks     *departmentLocks
	cfg       Config
	logger    *zap.Logger
}

func New(
	tickets repository.TicketRepository,
	catalog repository.CatalogRepository,
	sequence repository.SequenceAllocator,
	estimator *estimate.Estimator,
	sink EventSink,
	journal ActivityLog,
	logger *zap.Logger,
	cfg Config,
) *Dispatcher {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		tickets:   tickets,
		catalog:   catalog,
		sequence:  sequence,
		estimator: estimator,
		sink:      sink,
		journal:   journal,
		locks:     newDepartmentLocks(),
		cfg:       cfg,
		logger:    logger,
	}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	ServiceID string
	Customer  domain.Customer
}

// Register mints a ticket number, persists a waiting ticket and announces it
// to the department channel.
func (d *Dispatcher) Register(ctx context.Context, in RegisterInput) (*domain.TicketView, error) {
	if strings.TrimSpace(in.Customer.Name) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "customer name is required")
	}
	if in.ServiceID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "service id is required")
	}

	svc, err := d.catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, domain.ErrServiceNotFound
	}
	dept, err := d.catalog.GetDepartment(ctx, svc.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !dept.Active {
		return nil, domain.ErrDepartmentInactive
	}

	release, err := d.lock(ctx, dept.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	number, err := d.sequence.Allocate(ctx, dept.Prefix)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Number:       number,
		DepartmentID: dept.ID,
		ServiceID:    svc.ID,
		Customer:     in.Customer,
		Status:       domain.StatusWaiting,
	}
	if _, err := d.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if d.cfg.AutoAssign {
		d.suggestAssignee(ctx, ticket)
	}

	view := d.view(ctx, ticket)
	d.emit(domain.EventTicketCreated, view)
	return &view, nil
}

// CallNext pulls the oldest waiting ticket of the staff's department. The
// busy check, selection and transition run under the department lock so two
// staff members can never call the same ticket.
func (d *Dispatcher) CallNext(ctx context.Context, departmentID, staffID string) (*domain.TicketView, error) {
	staff, err := d.catalog.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff.DepartmentID != departmentID && staff.Role != RoleAdmin {
		return nil, domain.ErrForbidden
	}

	release, err := d.lock(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := d.ensureStaffFree(ctx, staffID); err != nil {
		return nil, err
	}

	ticket, err := d.tickets.SelectOldestWaiting(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return d.callTicket(ctx, ticket, staffID)
}

// CallTicket calls a specific ticket out of order. The single-active-ticket
// guard still applies; only the FIFO ordering check is bypassed.
func (d *Dispatcher) CallTicket(ctx context.Context, ticketID, staffID string) (*domain.TicketView, error) {
	ticket, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	staff, err := d.catalog.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff.DepartmentID != ticket.DepartmentID && staff.Role != RoleAdmin {
		return nil, domain.ErrForbidden
	}

	release, err := d.lock(ctx, ticket.DepartmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := d.ensureStaffFree(ctx, staffID); err != nil {
		return nil, err
	}
	return d.callTicket(ctx, ticket, staffID)
}

// Complete closes a called ticket. Only the assigned staff member or an
// admin may complete it.
func (d *Dispatcher) Complete(ctx context.Context, ticketID, staffID string) (*domain.TicketView, error) {
	ticket, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.AssignedStaffID != staffID {
		staff, err := d.catalog.GetStaff(ctx, staffID)
		if err != nil {
			return nil, err
		}
		if staff.Role != RoleAdmin {
			return nil, domain.ErrForbidden
		}
	}

	release, err := d.lock(ctx, ticket.DepartmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	return d.transition(ctx, ticket, domain.StatusCompleted, staffID, domain.EventTicketCompleted)
}

// MarkNoShow cancels a ticket before completion. actorStaffID is empty when
// the customer cancels their own ticket; a staff actor may only cancel a
// called ticket that is assigned to them, unless they are an admin.
func (d *Dispatcher) MarkNoShow(ctx context.Context, ticketID, actorStaffID string) (*domain.TicketView, error) {
	ticket, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actorStaffID != "" && ticket.Status == domain.StatusCalled && ticket.AssignedStaffID != actorStaffID {
		staff, err := d.catalog.GetStaff(ctx, actorStaffID)
		if err != nil {
			return nil, err
		}
		if staff.Role != RoleAdmin {
			return nil, domain.ErrForbidden
		}
	}

	release, err := d.lock(ctx, ticket.DepartmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	return d.transition(ctx, ticket, domain.StatusNoShow, "", domain.EventTicketNoShow)
}

// Status returns the derived view for one ticket.
func (d *Dispatcher) Status(ctx context.Context, ticketID string) (*domain.TicketView, error) {
	ticket, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	view := d.view(ctx, ticket)
	return &view, nil
}

// StatusByNumber returns the derived view looked up by the public number.
func (d *Dispatcher) StatusByNumber(ctx context.Context, number string) (*domain.TicketView, error) {
	ticket, err := d.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	view := d.view(ctx, ticket)
	return &view, nil
}

// DepartmentQueue returns the active line of a department with derived
// positions, oldest first.
func (d *Dispatcher) DepartmentQueue(ctx context.Context, departmentID string) ([]domain.TicketView, error) {
	if _, err := d.catalog.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	active, err := d.tickets.ListActive(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.TicketView, 0, len(active))
	for i := range active {
		views = append(views, d.view(ctx, &active[i]))
	}
	return views, nil
}

// CurrentTicket returns the staff member's called ticket, or nil when they
// are free.
func (d *Dispatcher) CurrentTicket(ctx context.Context, staffID string) (*domain.TicketView, error) {
	called, err := d.tickets.ListByStaff(ctx, staffID, []domain.TicketStatus{domain.StatusCalled})
	if err != nil {
		return nil, err
	}
	if len(called) == 0 {
		return nil, nil
	}
	view := d.view(ctx, &called[0])
	return &view, nil
}

func (d *Dispatcher) callTicket(ctx context.Context, ticket *domain.Ticket, staffID string) (*domain.TicketView, error) {
	return d.transition(ctx, ticket, domain.StatusCalled, staffID, domain.EventTicketCalled)
}

func (d *Dispatcher) transition(ctx context.Context, ticket *domain.Ticket, to domain.TicketStatus, staffID string, eventType domain.EventType) (*domain.TicketView, error) {
	observed := ticket.Status
	if err := domain.Transition(ticket, to, staffID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := d.tickets.UpdateStatus(ctx, ticket, observed); err != nil {
		return nil, err
	}

	view := d.view(ctx, ticket)
	d.emit(eventType, view)
	return &view, nil
}

func (d *Dispatcher) ensureStaffFree(ctx context.Context, staffID string) error {
	called, err := d.tickets.ListByStaff(ctx, staffID, []domain.TicketStatus{domain.StatusCalled})
	if err != nil {
		return err
	}
	if len(called) > 0 {
		return domain.ErrStaffBusy
	}
	return nil
}

func (d *Dispatcher) lock(ctx context.Context, departmentID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, d.cfg.LockTimeout)
	defer cancel()

	release, err := d.locks.acquire(lockCtx, departmentID)
	if err != nil {
		return nil, domain.ErrQueueBusy
	}
	return release, nil
}

// view computes the derived read model. Reads stay best-effort: estimator
// failure degrades to a bare view instead of failing the request.
func (d *Dispatcher) view(ctx context.Context, ticket *domain.Ticket) domain.TicketView {
	view, err := d.estimator.View(ctx, ticket)
	if err != nil {
		d.logger.Warn("wait estimate unavailable",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return domain.TicketView{Ticket: *ticket}
	}
	return view
}

func (d *Dispatcher) emit(eventType domain.EventType, view domain.TicketView) {
	event := domain.Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TicketID:     view.ID,
		DepartmentID: view.DepartmentID,
		Ticket:       view,
		EmittedAt:    time.Now().UTC(),
	}
	if d.journal != nil {
		if err := d.journal.Append(event); err != nil {
			d.logger.Warn("activity journal append failed",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	if d.sink != nil {
		d.sink.Publish(event)
	}
}
