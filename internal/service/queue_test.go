package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(capacity int) *QueueService {
	return NewQueueService(QueueConfig{
		PoolCapacity:   capacity,
		AdmitPerSecond: 2,
		ActiveTTL:      time.Minute,
	})
}

func TestJoinAdmitsImmediatelyWhilePoolHasRoom(t *testing.T) {
	q := newTestQueue(2)

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s2")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s3")
	require.NoError(t, err)

	assert.True(t, q.IsActive("ev-1", "s1"))
	assert.True(t, q.IsActive("ev-1", "s2"))
	assert.False(t, q.IsActive("ev-1", "s3"))
}

func TestWaitingPositionsAreGaplessAndFIFO(t *testing.T) {
	q := newTestQueue(1)

	for i := 1; i <= 4; i++ {
		_, err := q.Join("ev-1", fmt.Sprintf("s%d", i))
		require.NoError(t, err)
	}

	for i, want := range []int{1, 2, 3} {
		st, err := q.Status("ev-1", fmt.Sprintf("s%d", i+2))
		require.NoError(t, err)
		assert.Equal(t, want, st.Position)
		assert.Equal(t, 3, st.TotalWaiting)
		assert.False(t, st.CanProceed)
	}
}

func TestJoinTwiceKeepsExistingPosition(t *testing.T) {
	q := newTestQueue(1)

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s2")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s3")
	require.NoError(t, err)

	_, err = q.Join("ev-1", "s2")
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	st, err := q.Status("ev-1", "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Position)
}

func TestLeaveHandsSlotToLongestWaiting(t *testing.T) {
	q := newTestQueue(1)

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s2")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s3")
	require.NoError(t, err)

	q.Leave("ev-1", "s1")

	assert.True(t, q.IsActive("ev-1", "s2"))
	st, err := q.Status("ev-1", "s3")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Position)

	// Leaving when not queued is a no-op.
	q.Leave("ev-1", "s1")
	q.Leave("ev-1", "never-joined")
}

func TestSweepReclaimsIdleActiveSlots(t *testing.T) {
	q := newTestQueue(1)

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s2")
	require.NoError(t, err)

	// Well past s1's inactivity deadline.
	q.Sweep(time.Now().UTC().Add(2 * time.Minute))

	assert.False(t, q.IsActive("ev-1", "s1"))
	assert.True(t, q.IsActive("ev-1", "s2"))

	// The reclaimed session is fully forgotten and may rejoin.
	_, err = q.Status("ev-1", "s1")
	assert.ErrorIs(t, err, ErrNotQueued)
	_, err = q.Join("ev-1", "s1")
	assert.NoError(t, err)
}

func TestStatusPollRefreshesActiveDeadline(t *testing.T) {
	q := newTestQueue(1)

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)

	st, err := q.Status("ev-1", "s1")
	require.NoError(t, err)
	require.True(t, st.CanProceed)

	// A sweep at a time the original deadline would have passed must not
	// evict a session that just polled.
	q.Sweep(time.Now().UTC().Add(30 * time.Second))
	assert.True(t, q.IsActive("ev-1", "s1"))
}

func TestEstimatedWaitScalesWithPosition(t *testing.T) {
	q := newTestQueue(1) // AdmitPerSecond = 2

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)
	for i := 2; i <= 4; i++ {
		_, err = q.Join("ev-1", fmt.Sprintf("s%d", i))
		require.NoError(t, err)
	}

	st, err := q.Status("ev-1", "s4")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Position)
	assert.Equal(t, 2, st.EstimatedWaitSeconds) // ceil(3 / 2)
}

func TestJoinRejectsWhenLineIsCapped(t *testing.T) {
	q := NewQueueService(QueueConfig{
		PoolCapacity:   1,
		AdmitPerSecond: 1,
		ActiveTTL:      time.Minute,
		MaxWaiting:     1,
	})

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s2")
	require.NoError(t, err)
	_, err = q.Join("ev-1", "s3")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueuesPerEventAreIndependent(t *testing.T) {
	q := newTestQueue(1)

	_, err := q.Join("ev-1", "s1")
	require.NoError(t, err)
	_, err = q.Join("ev-2", "s1")
	require.NoError(t, err)

	assert.True(t, q.IsActive("ev-1", "s1"))
	assert.True(t, q.IsActive("ev-2", "s1"))
}

func TestStatusUnknownSession(t *testing.T) {
	q := newTestQueue(1)
	_, err := q.Status("ev-1", "nobody")
	assert.ErrorIs(t, err, ErrNotQueued)
}
