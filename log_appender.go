package sequencer

// CloseReason labels why a ClosedSession record is being appended.
type CloseReason uint32

const (
	CloseUserAction CloseReason = iota
	CloseTimeout
)

func (r CloseReason) String() string {
	switch r {
	case CloseUserAction:
		return "USER_ACTION"
	case CloseTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// LogAppender is the non-blocking append interface onto the replicated log.
// Every method returns whether the record was accepted; a false return
// means "try again next tick" and must never block or panic.
//
// Implementations must not retain the byte slices passed to
// AppendClientMessage beyond the call — the Sequencer may reuse the backing
// array for the next ingress frame.
type LogAppender interface {
	// AppendConnectedSession records a session's promotion from
	// authenticated to open.
	AppendConnectedSession(sessionID int64, correlationID int64, nowMs int64) bool

	// AppendClosedSession records a session's termination.
	AppendClosedSession(sessionID int64, reason CloseReason, nowMs int64) bool

	// AppendClientMessage records an application payload sent by an open
	// session.
	AppendClientMessage(sessionID int64, correlationID int64, payload []byte, nowMs int64) bool

	// AppendTimerEvent records a fired timer.
	AppendTimerEvent(correlationID int64, nowMs int64) bool

	// AppendActionRequest records an operator-driven mode transition.
	AppendActionRequest(action ActionRequestKind, nowMs int64) bool
}
