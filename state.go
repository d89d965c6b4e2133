package sequencer

import "sync/atomic"

// State is the Sequencer's operational state. The zero value is
// StateInit; StateClosed is terminal.
type State uint32

const (
	StateInit State = iota
	StateActive
	StateSuspended
	StateSnapshot
	StateShutdown
	StateAbort
	StateClosed
)

// String implements fmt.Stringer for readable logs and test failures.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateActive:
		return "ACTIVE"
	case StateSuspended:
		return "SUSPENDED"
	case StateSnapshot:
		return "SNAPSHOT"
	case StateShutdown:
		return "SHUTDOWN"
	case StateAbort:
		return "ABORT"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// atomicState is a lock-free holder for State, so external readers (e.g. a
// health check) can observe the Sequencer's state without synchronizing
// with the agent thread. Only the agent thread ever writes it.
type atomicState struct {
	v atomic.Uint32
}

func (a *atomicState) load() State {
	return State(a.v.Load())
}

func (a *atomicState) store(s State) {
	a.v.Store(uint32(s))
}

// ControlToggle is the code carried by the shared operator control-toggle
// counter. It is the only datum in this package written by
// a thread other than the agent's.
type ControlToggle uint32

const (
	ToggleNeutral ControlToggle = iota
	ToggleSuspend
	ToggleResume
	ToggleSnapshot
	ToggleShutdown
	ToggleAbort
)

func (t ControlToggle) String() string {
	switch t {
	case ToggleNeutral:
		return "NEUTRAL"
	case ToggleSuspend:
		return "SUSPEND"
	case ToggleResume:
		return "RESUME"
	case ToggleSnapshot:
		return "SNAPSHOT"
	case ToggleShutdown:
		return "SHUTDOWN"
	case ToggleAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}

func (t ControlToggle) valid() bool {
	return t <= ToggleAbort
}

// ControlToggleRef is the shared counter through which operators inject
// mode-change commands. It is safe for concurrent use: any number
// of external threads may call Set; only the Sequencer's agent thread calls
// load and resetIfStillEquals.
type ControlToggleRef struct {
	v atomic.Uint32
}

// NewControlToggleRef constructs a toggle initialized to ToggleNeutral.
func NewControlToggleRef() *ControlToggleRef {
	return &ControlToggleRef{}
}

// Set is called by an operator (from any goroutine) to request a mode
// change. It overwrites any previously-set, not-yet-observed toggle.
func (c *ControlToggleRef) Set(t ControlToggle) {
	c.v.Store(uint32(t))
}

func (c *ControlToggleRef) load() ControlToggle {
	return ControlToggle(c.v.Load())
}

// resetIfStillEquals clears the toggle back to neutral, but only if no
// newer command has been set concurrently since it was read.
func (c *ControlToggleRef) resetIfStillEquals(t ControlToggle) {
	c.v.CompareAndSwap(uint32(t), uint32(ToggleNeutral))
}

// ActionRequestKind identifies the action-request record appended to the
// log as part of a control-toggle-driven transition.
type ActionRequestKind uint32

const (
	ActionSnapshot ActionRequestKind = iota
	ActionShutdown
	ActionAbort
)

func (a ActionRequestKind) String() string {
	switch a {
	case ActionSnapshot:
		return "SNAPSHOT"
	case ActionShutdown:
		return "SHUTDOWN"
	case ActionAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}
