package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/queueflow/backend/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrInvalidPayload, http.StatusBadRequest, "INVALID"},
		{domain.ErrTicketNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrEmptyQueue, http.StatusNotFound, "EMPTY_QUEUE"},
		{domain.ErrStaffBusy, http.StatusConflict, "CONFLICT"},
		{domain.ErrQueueBusy, http.StatusConflict, "CONFLICT"},
		{domain.NewError(domain.ErrCodeInvalidTransition, "bad edge"), http.StatusConflict, "INVALID_TRANSITION"},
		{domain.NewError(domain.ErrCodeUnavailable, "store down"), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		status, code := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.code)
		assert.Equal(t, tc.code, code)
	}
}

func TestMapError_WrappedErrors(t *testing.T) {
	wrapped := domain.WrapError(domain.ErrCodeUnavailable, "sequence allocation failed", errors.New("conn refused"))
	status, code := mapError(wrapped)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UNAVAILABLE", code)
}
