package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		ok       bool
	}{
		{StatusWaiting, StatusCalled, true},
		{StatusWaiting, StatusNoShow, true},
		{StatusCalled, StatusCompleted, true},
		{StatusCalled, StatusNoShow, true},
		{StatusWaiting, StatusCompleted, false},
		{StatusCalled, StatusWaiting, false},
		{StatusCompleted, StatusCalled, false},
		{StatusCompleted, StatusNoShow, false},
		{StatusNoShow, StatusWaiting, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_Call(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	ticket := &Ticket{Number: "B001", Status: StatusWaiting}

	err := Transition(ticket, StatusCalled, "staff-1", now)
	require.NoError(t, err)

	assert.Equal(t, StatusCalled, ticket.Status)
	assert.Equal(t, "staff-1", ticket.AssignedStaffID)
	require.NotNil(t, ticket.CalledAt)
	assert.Equal(t, now, *ticket.CalledAt)
	assert.Nil(t, ticket.CompletedAt)
}

func TestTransition_Complete(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	called := now.Add(-10 * time.Minute)
	ticket := &Ticket{Number: "B001", Status: StatusCalled, AssignedStaffID: "staff-1", CalledAt: &called}

	err := Transition(ticket, StatusCompleted, "staff-1", now)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, ticket.Status)
	require.NotNil(t, ticket.CompletedAt)
	assert.Equal(t, now, *ticket.CompletedAt)
	assert.True(t, ticket.CompletedAt.After(*ticket.CalledAt))
}

func TestTransition_NoShowClosesTicket(t *testing.T) {
	now := time.Now().UTC()

	waiting := &Ticket{Number: "B002", Status: StatusWaiting}
	require.NoError(t, Transition(waiting, StatusNoShow, "", now))
	assert.Equal(t, StatusNoShow, waiting.Status)
	require.NotNil(t, waiting.CompletedAt)

	ts := now.Add(-time.Minute)
	calledTicket := &Ticket{Number: "B003", Status: StatusCalled, CalledAt: &ts}
	require.NoError(t, Transition(calledTicket, StatusNoShow, "", now))
	assert.True(t, calledTicket.Status.Terminal())
}

func TestTransition_IllegalEdge(t *testing.T) {
	ticket := &Ticket{Number: "B001", Status: StatusWaiting}

	err := Transition(ticket, StatusCompleted, "staff-1", time.Now())
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeInvalidTransition))

	// failed transition leaves the ticket untouched
	assert.Equal(t, StatusWaiting, ticket.Status)
	assert.Nil(t, ticket.CompletedAt)
}

func TestTransition_TerminalIsFinal(t *testing.T) {
	for _, from := range []TicketStatus{StatusCompleted, StatusNoShow} {
		for _, to := range []TicketStatus{StatusWaiting, StatusCalled, StatusCompleted, StatusNoShow} {
			ts := time.Now()
			ticket := &Ticket{Status: from, CompletedAt: &ts}
			err := Transition(ticket, to, "", time.Now())
			assert.Error(t, err, "%s -> %s must be rejected", from, to)
		}
	}
}
