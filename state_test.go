package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateInit:      "INIT",
		StateActive:    "ACTIVE",
		StateSuspended: "SUSPENDED",
		StateSnapshot:  "SNAPSHOT",
		StateShutdown:  "SHUTDOWN",
		StateAbort:     "ABORT",
		StateClosed:    "CLOSED",
		State(99):      "UNKNOWN",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}

func TestControlToggleRef_SetAndLoad(t *testing.T) {
	ref := NewControlToggleRef()
	assert.Equal(t, ToggleNeutral, ref.load())

	ref.Set(ToggleSnapshot)
	assert.Equal(t, ToggleSnapshot, ref.load())
}

func TestControlToggleRef_ResetIfStillEquals(t *testing.T) {
	ref := NewControlToggleRef()
	ref.Set(ToggleSnapshot)

	ref.resetIfStillEquals(ToggleSnapshot)
	assert.Equal(t, ToggleNeutral, ref.load())
}

// TestControlToggleRef_ResetDoesNotClobberNewerCommand pins the CAS
// semantics: a toggle set concurrently after the agent read the old value
// must survive the agent's reset of the value it actually observed.
func TestControlToggleRef_ResetDoesNotClobberNewerCommand(t *testing.T) {
	ref := NewControlToggleRef()
	ref.Set(ToggleSnapshot)
	observed := ref.load()

	ref.Set(ToggleAbort) // a newer command arrives before the reset

	ref.resetIfStillEquals(observed)
	assert.Equal(t, ToggleAbort, ref.load(), "resetIfStillEquals must not clobber a newer toggle")
}

func TestControlToggle_Valid(t *testing.T) {
	assert.True(t, ToggleNeutral.valid())
	assert.True(t, ToggleAbort.valid())
	assert.False(t, ControlToggle(100).valid())
}

func TestAtomicState_LoadStore(t *testing.T) {
	var s atomicState
	assert.Equal(t, StateInit, s.load())
	s.store(StateActive)
	assert.Equal(t, StateActive, s.load())
}
