package sequencer

// EgressEventKind identifies the kind of best-effort event sent to a
// session's response channel.
type EgressEventKind uint32

const (
	EgressAuthenticationRejected EgressEventKind = iota
	EgressError
)

func (k EgressEventKind) String() string {
	switch k {
	case EgressAuthenticationRejected:
		return "AUTHENTICATION_REJECTED"
	case EgressError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Detail strings for EgressError events.
const (
	DetailConcurrentSessionLimit      = "Concurrent session limit"
	DetailSessionInactive             = "Session inactive"
	DetailSessionFailedAuthentication = "Session failed authentication"
)

// EgressPublisher is the non-blocking send interface onto a session's
// response channel. Send must never block; a false return
// means the event was not delivered and, per the caller's own retry policy,
// may or may not be retried (the Sequencer treats every send as strictly
// best-effort).
type EgressPublisher interface {
	// IsConnected reports whether the underlying transport is currently
	// usable. A session with a publication that is not connected cannot
	// progress past SessionConnected.
	IsConnected() bool

	// Send attempts to deliver an event with an optional detail string.
	// Returns true if the event was handed off to the transport.
	Send(kind EgressEventKind, correlationID int64, detail string) bool

	// SendChallenge attempts to deliver an authenticator-defined challenge
	// payload, distinct from the fixed EgressEventKind vocabulary above.
	SendChallenge(correlationID int64, payload []byte) bool
}
