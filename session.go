package sequencer

// SessionState is a session's lifecycle state. A session's
// container membership (pending/active/rejected) is tracked separately by
// the Sequencer, not encoded here: the pre-auth/open/terminal states are one
// flat enum, and the Sequencer's three slices/map are the sole source of
// truth for container ownership.
type SessionState uint32

const (
	SessionInit SessionState = iota
	SessionConnected
	SessionChallenged
	SessionAuthenticated
	SessionRejected
	SessionOpen
	SessionTimedOut
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionInit:
		return "INIT"
	case SessionConnected:
		return "CONNECTED"
	case SessionChallenged:
		return "CHALLENGED"
	case SessionAuthenticated:
		return "AUTHENTICATED"
	case SessionRejected:
		return "REJECTED"
	case SessionOpen:
		return "OPEN"
	case SessionTimedOut:
		return "TIMED_OUT"
	case SessionClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// RejectReason distinguishes the two ways a pending session can end up in
// the rejected list: an authenticator rejection, versus
// admission over maxConcurrentSessions.
type RejectReason uint32

const (
	RejectAuthentication RejectReason = iota
	RejectOverLimit
)

// Session is a single client's logical conversation with the cluster.
// Sessions are created exclusively by the Sequencer; authors of
// LogAppender/EgressPublisher/Authenticator/IngressAdapter never construct
// one directly.
type Session struct {
	// ID is the monotonically assigned, never-reused session identifier.
	ID int64

	ResponseStreamID  int64
	ResponseChannel   string
	LastActivityMs    int64
	LastCorrelationID int64

	State SessionState

	// RejectReason is meaningful only while State == SessionRejected.
	RejectReason RejectReason

	// connectCorrelationID is the correlation id of the original
	// SessionConnect frame, retained so AppendConnectedSession can be
	// retried with a stable correlation id across ticks.
	connectCorrelationID int64

	publication EgressPublisher
}

// connected reports whether the session's egress publication is usable.
// Sessions whose publication is not yet connected stay in INIT/CONNECTED
// without progressing through authentication.
func (s *Session) connected() bool {
	return s.publication != nil && s.publication.IsConnected()
}
