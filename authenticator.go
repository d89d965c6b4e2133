package sequencer

// Authenticator drives a session from connected through to authenticated or
// rejected. The core treats authentication as entirely opaque —
// it never inspects credential payloads.
//
// Implementations must not retain a SessionProxy beyond the call they
// received it in: it is a capability scoped to a single upcall, not a
// long-lived handle back into the Sequencer.
type Authenticator interface {
	// OnConnectRequest is invoked once, synchronously, when a SessionConnect
	// frame is admitted to pending. credentialData is opaque.
	OnConnectRequest(sessionID int64, credentialData []byte, nowMs int64)

	// OnChallengeResponse is invoked when a ChallengeResponse frame arrives
	// for a session in SessionChallenged.
	OnChallengeResponse(sessionID int64, credentialData []byte, nowMs int64)

	// OnProcessConnectedSession is polled once per tick for every pending
	// session in SessionInit/SessionConnected whose publication is
	// connected, giving the authenticator a chance to progress it (e.g.
	// issue a challenge) without waiting on an inbound frame.
	OnProcessConnectedSession(proxy *SessionProxy, nowMs int64)

	// OnProcessChallengedSession is the SessionChallenged analogue of
	// OnProcessConnectedSession.
	OnProcessChallengedSession(proxy *SessionProxy, nowMs int64)
}

// SessionProxy is the capability an Authenticator uses to mutate exactly
// one session and optionally reply to its client, scoped to a single
// upcall. It is not safe to retain past the call that produced it.
type SessionProxy struct {
	session *Session
	egress  EgressPublisher
}

// SessionID returns the id of the session this proxy mutates.
func (p *SessionProxy) SessionID() int64 {
	return p.session.ID
}

// SetChallenged transitions the session to SessionChallenged.
func (p *SessionProxy) SetChallenged() {
	p.session.State = SessionChallenged
}

// SetAuthenticated transitions the session to SessionAuthenticated. The
// Sequencer promotes it to the active map on the next pending-session sweep.
func (p *SessionProxy) SetAuthenticated() {
	p.session.State = SessionAuthenticated
}

// SetRejected transitions the session to SessionRejected. The Sequencer
// moves it to the rejected list on the next pending-session sweep.
func (p *SessionProxy) SetRejected() {
	p.session.State = SessionRejected
	p.session.RejectReason = RejectAuthentication
}

// SendChallenge sends an authenticator-defined challenge payload back to
// the client. Delivery is best-effort, like all egress.
func (p *SessionProxy) SendChallenge(correlationID int64, payload []byte) bool {
	if p.egress == nil {
		return false
	}
	return p.egress.SendChallenge(correlationID, payload)
}
