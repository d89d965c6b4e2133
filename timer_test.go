package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerService_FiresInDeadlineOrder(t *testing.T) {
	var fired []int64
	ts := NewTimerService(func(correlationID, nowMs int64) bool {
		fired = append(fired, correlationID)
		return true
	})

	ts.ScheduleTimer(3, 300)
	ts.ScheduleTimer(1, 100)
	ts.ScheduleTimer(2, 200)

	n := ts.Poll(250)
	require.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, fired)
	assert.Equal(t, 1, ts.Len())
}

func TestTimerService_RescheduleReplacesDeadline(t *testing.T) {
	var fired []int64
	ts := NewTimerService(func(correlationID, nowMs int64) bool {
		fired = append(fired, correlationID)
		return true
	})

	ts.ScheduleTimer(1, 1000)
	ts.ScheduleTimer(1, 100)

	require.Equal(t, 1, ts.Len())
	n := ts.Poll(500)
	require.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, fired)
}

func TestTimerService_CancelUnknownIsNoOp(t *testing.T) {
	ts := NewTimerService(func(correlationID, nowMs int64) bool { return true })
	ts.CancelTimer(999)
	assert.Equal(t, 0, ts.Len())
}

func TestTimerService_CancelRemovesScheduledTimer(t *testing.T) {
	var fired []int64
	ts := NewTimerService(func(correlationID, nowMs int64) bool {
		fired = append(fired, correlationID)
		return true
	})
	ts.ScheduleTimer(1, 100)
	ts.ScheduleTimer(2, 100)
	ts.CancelTimer(1)

	n := ts.Poll(100)
	require.Equal(t, 1, n)
	assert.Equal(t, []int64{2}, fired)
}

// TestTimerService_RefusalDoesNotBlockOtherDueTimers pins the liveness fix:
// one timer whose append keeps failing must not stall a second,
// independently-due timer within the same Poll call.
func TestTimerService_RefusalDoesNotBlockOtherDueTimers(t *testing.T) {
	var fired []int64
	ts := NewTimerService(func(correlationID, nowMs int64) bool {
		if correlationID == 1 {
			return false
		}
		fired = append(fired, correlationID)
		return true
	})
	ts.ScheduleTimer(1, 100)
	ts.ScheduleTimer(2, 100)

	n := ts.Poll(100)
	require.Equal(t, 1, n)
	assert.Equal(t, []int64{2}, fired)
	require.Equal(t, 1, ts.Len(), "the refused timer must remain scheduled")

	n = ts.Poll(100)
	assert.Equal(t, 0, n, "a refused timer stays refused, not forgotten")
}

func TestTimerService_PollBelowDeadlineDoesNothing(t *testing.T) {
	calls := 0
	ts := NewTimerService(func(correlationID, nowMs int64) bool {
		calls++
		return true
	})
	ts.ScheduleTimer(1, 1000)
	n := ts.Poll(999)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, ts.Len())
}
