package sequencer

// IngressAck is the controlled acknowledgement IngressAdapter implementors
// must honor for SessionMessage frames.
type IngressAck uint32

const (
	// AckContinue tells the adapter to advance past the frame: either it
	// was accepted, or the session no longer exists.
	AckContinue IngressAck = iota
	// AckAbort tells the adapter the log append refused the frame. The
	// adapter MUST re-offer the identical frame (same correlation id and
	// payload) on its next poll — this is a hard requirement on
	// IngressAdapter implementations, not an optional retry courtesy,
	// because the Sequencer performs no buffering of its own between polls.
	AckAbort
)

// IngressAdapter dispatches inbound frames to the Sequencer's callbacks
// with controlled-acknowledgement semantics. Only this polling contract is
// specified here, not the wire framing behind it.
//
// Poll must be non-blocking and dispatch zero or more already-buffered
// frames per call, calling back into the supplied Sequencer-owned callbacks
// synchronously, in the order the frames were received. It returns the
// number of frames dispatched as the unit of work for this poll.
type IngressAdapter interface {
	Poll(h IngressHandler) int

	// Close releases adapter resources. Called once, from Sequencer.Close,
	// when the Sequencer does not own an ambient messaging client.
	Close()
}

// IngressHandler is the set of callbacks an IngressAdapter dispatches
// frames to. The Sequencer implements this; adapters never implement it.
type IngressHandler interface {
	// OnSessionConnect admits or rejects a new session and assigns it a
	// new session id.
	OnSessionConnect(correlationID int64, responseStreamID int64, responseChannel string, credentialData []byte, nowMs int64)

	// OnSessionClose requests that an existing session be closed with
	// CloseUserAction.
	OnSessionClose(clusterSessionID int64, nowMs int64)

	// OnSessionMessage delivers an application payload from an existing
	// session. The return value is the controlled acknowledgement the
	// adapter must honor (see IngressAck).
	OnSessionMessage(clusterSessionID int64, correlationID int64, payload []byte, nowMs int64) IngressAck

	// OnKeepAlive refreshes a session's last-activity timestamp.
	OnKeepAlive(correlationID int64, clusterSessionID int64, nowMs int64)

	// OnChallengeResponse forwards a challenge response to the
	// Authenticator if the named session is in SessionChallenged.
	OnChallengeResponse(correlationID int64, clusterSessionID int64, credentialData []byte, nowMs int64)

	// OnScheduleTimer forwards a schedule request to the TimerService.
	OnScheduleTimer(correlationID int64, deadlineMs int64)

	// OnCancelTimer forwards a cancel request to the TimerService.
	OnCancelTimer(correlationID int64)
}
