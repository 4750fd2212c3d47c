package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/repository/memory"
	"github.com/queueflow/backend/usecase/estimate"
)

type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *captureSink) Publish(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) byType(eventType domain.EventType) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	dispatcher *Dispatcher
	tickets    *memory.TicketRepository
	catalog    *memory.Catalog
	sink       *captureSink
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	catalog := memory.NewCatalog()
	catalog.AddDepartment(domain.Department{
		ID: "dept-b", Name: "Billing", Prefix: "B",
		AverageServiceMinutes: 12, Active: true,
	})
	catalog.AddService(domain.Service{
		ID: "svc-pay", DepartmentID: "dept-b", Name: "Payments",
		AverageDurationMinutes: 10, Active: true,
	})
	catalog.AddStaff(domain.Staff{ID: "staff-alice", DepartmentID: "dept-b", Name: "Alice", Role: "staff", Active: true})
	catalog.AddStaff(domain.Staff{ID: "staff-bob", DepartmentID: "dept-b", Name: "Bob", Role: "staff", Active: true})
	catalog.AddStaff(domain.Staff{ID: "staff-root", DepartmentID: "dept-a", Name: "Root", Role: RoleAdmin, Active: true})

	tickets := memory.NewTicketRepository()
	sink := &captureSink{}
	dispatcher := New(
		tickets,
		catalog,
		memory.NewSequenceAllocator(),
		estimate.New(tickets, catalog, 0),
		sink,
		nil,
		nil,
		cfg,
	)
	return &fixture{dispatcher: dispatcher, tickets: tickets, catalog: catalog, sink: sink}
}

func (f *fixture) register(t *testing.T, name string) *domain.TicketView {
	t.Helper()
	view, err := f.dispatcher.Register(context.Background(), RegisterInput{
		ServiceID: "svc-pay",
		Customer:  domain.Customer{Name: name},
	})
	require.NoError(t, err)
	return view
}

func TestRegister_MintsSequentialNumbers(t *testing.T) {
	f := newFixture(t, Config{})

	first := f.register(t, "Customer One")
	second := f.register(t, "Customer Two")
	third := f.register(t, "Customer Three")

	assert.Equal(t, "B001", first.Number)
	assert.Equal(t, "B002", second.Number)
	assert.Equal(t, "B003", third.Number)

	assert.Equal(t, domain.StatusWaiting, third.Status)
	assert.Equal(t, 3, third.Position)
	assert.Equal(t, 20, third.EstimatedWaitMinutes)

	created := f.sink.byType(domain.EventTicketCreated)
	assert.Len(t, created, 3)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.dispatcher.Register(ctx, RegisterInput{ServiceID: "svc-pay"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = f.dispatcher.Register(ctx, RegisterInput{
		ServiceID: "svc-missing",
		Customer:  domain.Customer{Name: "Someone"},
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestRegister_InactiveDepartment(t *testing.T) {
	f := newFixture(t, Config{})
	f.catalog.AddDepartment(domain.Department{ID: "dept-b", Prefix: "B", Active: false})

	_, err := f.dispatcher.Register(context.Background(), RegisterInput{
		ServiceID: "svc-pay",
		Customer:  domain.Customer{Name: "Someone"},
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestCallNext_FIFO(t *testing.T) {
	f := newFixture(t, Config{})
	first := f.register(t, "Customer One")
	f.register(t, "Customer Two")

	called, err := f.dispatcher.CallNext(context.Background(), "dept-b", "staff-alice")
	require.NoError(t, err)

	assert.Equal(t, first.ID, called.ID)
	assert.Equal(t, domain.StatusCalled, called.Status)
	assert.Equal(t, "staff-alice", called.AssignedStaffID)
	require.NotNil(t, called.CalledAt)
	assert.False(t, called.CalledAt.Before(called.CreatedAt))

	events := f.sink.byType(domain.EventTicketCalled)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].TicketID)
	assert.Equal(t, "dept-b", events[0].DepartmentID)
}

func TestCallNext_StaffBusy(t *testing.T) {
	f := newFixture(t, Config{})
	f.register(t, "Customer One")
	f.register(t, "Customer Two")

	ctx := context.Background()
	_, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	require.NoError(t, err)

	_, err = f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestCallNext_EmptyQueue(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.dispatcher.CallNext(context.Background(), "dept-b", "staff-alice")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeEmptyQueue))
}

func TestCallNext_DepartmentScoping(t *testing.T) {
	f := newFixture(t, Config{})
	f.catalog.AddDepartment(domain.Department{ID: "dept-a", Name: "Accounts", Prefix: "A", Active: true})
	f.register(t, "Customer One")

	ctx := context.Background()

	// staff from another department is rejected
	f.catalog.AddStaff(domain.Staff{ID: "staff-eve", DepartmentID: "dept-a", Role: "staff", Active: true})
	_, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-eve")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	// admins may pull from any department
	called, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-root")
	require.NoError(t, err)
	assert.Equal(t, "staff-root", called.AssignedStaffID)
}

func TestCallTicket_OutOfOrder(t *testing.T) {
	f := newFixture(t, Config{})
	f.register(t, "Customer One")
	second := f.register(t, "Customer Two")

	called, err := f.dispatcher.CallTicket(context.Background(), second.ID, "staff-alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, called.ID)
	assert.Equal(t, domain.StatusCalled, called.Status)
}

func TestComplete_Authorization(t *testing.T) {
	f := newFixture(t, Config{})
	f.register(t, "Customer One")

	ctx := context.Background()
	called, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	require.NoError(t, err)

	_, err = f.dispatcher.Complete(ctx, called.ID, "staff-bob")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	done, err := f.dispatcher.Complete(ctx, called.ID, "staff-alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.False(t, done.CompletedAt.Before(*done.CalledAt))

	// position and ETA are zeroed once the ticket leaves the line
	assert.Zero(t, done.Position)
	assert.Zero(t, done.EstimatedWaitMinutes)
}

func TestComplete_AdminOverride(t *testing.T) {
	f := newFixture(t, Config{})
	f.register(t, "Customer One")

	ctx := context.Background()
	called, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	require.NoError(t, err)

	done, err := f.dispatcher.Complete(ctx, called.ID, "staff-root")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
}

func TestComplete_WaitingTicketRejected(t *testing.T) {
	f := newFixture(t, Config{})
	ticket := f.register(t, "Customer One")

	_, err := f.dispatcher.Complete(context.Background(), ticket.ID, "staff-root")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
}

func TestMarkNoShow_CustomerCancel(t *testing.T) {
	f := newFixture(t, Config{})
	ticket := f.register(t, "Customer One")

	gone, err := f.dispatcher.MarkNoShow(context.Background(), ticket.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoShow, gone.Status)
	require.NotNil(t, gone.CompletedAt)

	events := f.sink.byType(domain.EventTicketNoShow)
	assert.Len(t, events, 1)
}

func TestMarkNoShow_CalledTicketNeedsAssignee(t *testing.T) {
	f := newFixture(t, Config{})
	f.register(t, "Customer One")

	ctx := context.Background()
	called, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	require.NoError(t, err)

	_, err = f.dispatcher.MarkNoShow(ctx, called.ID, "staff-bob")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	gone, err := f.dispatcher.MarkNoShow(ctx, called.ID, "staff-alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoShow, gone.Status)
}

func TestMarkNoShow_Twice(t *testing.T) {
	f := newFixture(t, Config{})
	ticket := f.register(t, "Customer One")

	ctx := context.Background()
	_, err := f.dispatcher.MarkNoShow(ctx, ticket.ID, "")
	require.NoError(t, err)

	_, err = f.dispatcher.MarkNoShow(ctx, ticket.ID, "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
}

func TestQueueAdvancesAfterCompletion(t *testing.T) {
	f := newFixture(t, Config{})
	f.register(t, "Customer One")
	second := f.register(t, "Customer Two")

	ctx := context.Background()
	called, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	require.NoError(t, err)

	// the remaining waiter moved to the head of the line
	view, err := f.dispatcher.Status(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Position)
	assert.Zero(t, view.EstimatedWaitMinutes)

	_, err = f.dispatcher.Complete(ctx, called.ID, "staff-alice")
	require.NoError(t, err)

	next, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.ID)
}

func TestDepartmentQueue(t *testing.T) {
	f := newFixture(t, Config{})
	first := f.register(t, "Customer One")
	second := f.register(t, "Customer Two")

	views, err := f.dispatcher.DepartmentQueue(context.Background(), "dept-b")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, second.ID, views[1].ID)

	_, err = f.dispatcher.DepartmentQueue(context.Background(), "dept-missing")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestStatusByNumber(t *testing.T) {
	f := newFixture(t, Config{})
	ticket := f.register(t, "Customer One")

	view, err := f.dispatcher.StatusByNumber(context.Background(), ticket.Number)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, view.ID)

	_, err = f.dispatcher.StatusByNumber(context.Background(), "Z999")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestCurrentTicket(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	view, err := f.dispatcher.CurrentTicket(ctx, "staff-alice")
	require.NoError(t, err)
	assert.Nil(t, view)

	f.register(t, "Customer One")
	called, err := f.dispatcher.CallNext(ctx, "dept-b", "staff-alice")
	require.NoError(t, err)

	view, err = f.dispatcher.CurrentTicket(ctx, "staff-alice")
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, called.ID, view.ID)
}

func TestAutoAssign_BalancesSuggestions(t *testing.T) {
	f := newFixture(t, Config{AutoAssign: true})

	first := f.register(t, "Customer One")
	second := f.register(t, "Customer Two")

	// equal load ties break on the lowest staff id
	assert.Equal(t, "staff-alice", first.SuggestedStaffID)
	assert.Equal(t, "staff-bob", second.SuggestedStaffID)
}

func TestAutoAssign_AdvisoryOnly(t *testing.T) {
	f := newFixture(t, Config{AutoAssign: true})
	ticket := f.register(t, "Customer One")

	require.Equal(t, "staff-alice", ticket.SuggestedStaffID)
	assert.Equal(t, domain.StatusWaiting, ticket.Status)
	assert.Empty(t, ticket.AssignedStaffID)

	// any staff may still pull it; the suggestion does not reserve
	called, err := f.dispatcher.CallNext(context.Background(), "dept-b", "staff-bob")
	require.NoError(t, err)
	assert.Equal(t, "staff-bob", called.AssignedStaffID)
}

func TestConcurrentRegistrations_UniqueNumbers(t *testing.T) {
	f := newFixture(t, Config{})
	const n = 40

	var wg sync.WaitGroup
	results := make([]*domain.TicketView, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view, err := f.dispatcher.Register(context.Background(), RegisterInput{
				ServiceID: "svc-pay",
				Customer:  domain.Customer{Name: fmt.Sprintf("Customer %d", i)},
			})
			if assert.NoError(t, err) {
				results[i] = view
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, view := range results {
		require.NotNil(t, view)
		_, dup := seen[view.Number]
		assert.False(t, dup, "duplicate ticket number %s", view.Number)
		seen[view.Number] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestConcurrentCallNext_SingleWinner(t *testing.T) {
	f := newFixture(t, Config{})
	only := f.register(t, "Customer One")

	var wg sync.WaitGroup
	winners := make(chan string, 2)
	for _, staffID := range []string{"staff-alice", "staff-bob"} {
		wg.Add(1)
		go func(staffID string) {
			defer wg.Done()
			view, err := f.dispatcher.CallNext(context.Background(), "dept-b", staffID)
			if err == nil {
				winners <- view.AssignedStaffID
			} else {
				assert.True(t, domain.IsDomainError(err, domain.ErrCodeEmptyQueue) ||
					domain.IsDomainError(err, domain.ErrCodeConflict))
			}
		}(staffID)
	}
	wg.Wait()
	close(winners)

	var assigned []string
	for staffID := range winners {
		assigned = append(assigned, staffID)
	}
	require.Len(t, assigned, 1, "exactly one staff member may win the ticket")

	current, err := f.dispatcher.Status(context.Background(), only.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCalled, current.Status)
	assert.Equal(t, assigned[0], current.AssignedStaffID)
}
