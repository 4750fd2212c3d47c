package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueflow/backend/domain"
)

func createWaiting(t *testing.T, repo *TicketRepository, number string, createdAt time.Time) *domain.Ticket {
	t.Helper()
	ticket, err := repo.Create(context.Background(), &domain.Ticket{
		Number:       number,
		DepartmentID: "dept-b",
		ServiceID:    "svc-pay",
		Customer:     domain.Customer{Name: "Customer " + number},
		Status:       domain.StatusWaiting,
		CreatedAt:    createdAt,
	})
	require.NoError(t, err)
	return ticket
}

func TestSelectOldestWaiting_TieBreaksOnSeq(t *testing.T) {
	repo := NewTicketRepository()
	sameInstant := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	first := createWaiting(t, repo, "B001", sameInstant)
	createWaiting(t, repo, "B002", sameInstant)

	oldest, err := repo.SelectOldestWaiting(context.Background(), "dept-b")
	require.NoError(t, err)
	assert.Equal(t, first.ID, oldest.ID)
}

func TestSelectOldestWaiting_SkipsCalled(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	head := createWaiting(t, repo, "B001", time.Now().UTC())
	second := createWaiting(t, repo, "B002", time.Now().UTC())

	updated := *head
	require.NoError(t, domain.Transition(&updated, domain.StatusCalled, "staff-1", time.Now().UTC()))
	require.NoError(t, repo.UpdateStatus(ctx, &updated, domain.StatusWaiting))

	oldest, err := repo.SelectOldestWaiting(ctx, "dept-b")
	require.NoError(t, err)
	assert.Equal(t, second.ID, oldest.ID)
}

func TestSelectOldestWaiting_Empty(t *testing.T) {
	repo := NewTicketRepository()
	_, err := repo.SelectOldestWaiting(context.Background(), "dept-b")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeEmptyQueue))
}

func TestUpdateStatus_CASRejectsStaleObserver(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	ticket := createWaiting(t, repo, "B001", time.Now().UTC())

	winner := *ticket
	require.NoError(t, domain.Transition(&winner, domain.StatusCalled, "staff-1", time.Now().UTC()))
	require.NoError(t, repo.UpdateStatus(ctx, &winner, domain.StatusWaiting))

	// the second caller still thinks the ticket is waiting
	loser := *ticket
	require.NoError(t, domain.Transition(&loser, domain.StatusCalled, "staff-2", time.Now().UTC()))
	err := repo.UpdateStatus(ctx, &loser, domain.StatusWaiting)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	stored, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", stored.AssignedStaffID)
}

func TestUpdateStatus_UnknownTicket(t *testing.T) {
	repo := NewTicketRepository()
	err := repo.UpdateStatus(context.Background(), &domain.Ticket{ID: "missing", Status: domain.StatusCalled}, domain.StatusWaiting)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestReadsReturnCopies(t *testing.T) {
	repo := NewTicketRepository()
	ticket := createWaiting(t, repo, "B001", time.Now().UTC())

	loaded, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	loaded.Status = domain.StatusCompleted

	again, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, again.Status)
}

func TestCountWorkload(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	called := createWaiting(t, repo, "B001", time.Now().UTC())
	updated := *called
	require.NoError(t, domain.Transition(&updated, domain.StatusCalled, "staff-1", time.Now().UTC()))
	require.NoError(t, repo.UpdateStatus(ctx, &updated, domain.StatusWaiting))

	suggested := createWaiting(t, repo, "B002", time.Now().UTC())
	require.NoError(t, repo.SetSuggestedStaff(ctx, suggested.ID, "staff-1"))

	createWaiting(t, repo, "B003", time.Now().UTC())

	load, err := repo.CountWorkload(ctx, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, 2, load)

	load, err = repo.CountWorkload(ctx, "staff-2")
	require.NoError(t, err)
	assert.Zero(t, load)
}

func TestCountWaitingBefore(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	head := createWaiting(t, repo, "B001", time.Now().UTC())
	createWaiting(t, repo, "B002", time.Now().UTC())
	third := createWaiting(t, repo, "B003", time.Now().UTC())

	ahead, err := repo.CountWaitingBefore(ctx, "dept-b", third.Seq)
	require.NoError(t, err)
	assert.Equal(t, 2, ahead)

	// a called head no longer counts toward anyone's position
	updated := *head
	require.NoError(t, domain.Transition(&updated, domain.StatusCalled, "staff-1", time.Now().UTC()))
	require.NoError(t, repo.UpdateStatus(ctx, &updated, domain.StatusWaiting))

	ahead, err = repo.CountWaitingBefore(ctx, "dept-b", third.Seq)
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
}
