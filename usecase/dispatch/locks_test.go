package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueflow/backend/domain"
)

func TestDepartmentLocks_SerializePerDepartment(t *testing.T) {
	locks := newDepartmentLocks()

	release, err := locks.acquire(context.Background(), "dept-b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, "dept-b")
	assert.Error(t, err, "second acquire on a held lock must time out")

	// a different department does not contend
	releaseOther, err := locks.acquire(context.Background(), "dept-a")
	require.NoError(t, err)
	releaseOther()

	release()
	releaseAgain, err := locks.acquire(context.Background(), "dept-b")
	require.NoError(t, err)
	releaseAgain()
}

func TestDispatcher_LockContentionSurfacesBusy(t *testing.T) {
	f := newFixture(t, Config{LockTimeout: 20 * time.Millisecond})
	f.register(t, "Customer One")

	release, err := f.dispatcher.locks.acquire(context.Background(), "dept-b")
	require.NoError(t, err)
	defer release()

	_, err = f.dispatcher.CallNext(context.Background(), "dept-b", "staff-alice")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}
