package sequencer

// In-memory fakes for every collaborator contract, used across this
// package's test files. None of them are exported; real implementations
// live outside this module.

type fakeLogAppender struct {
	refuseConnected bool
	refuseClosed    bool
	refuseMessage   bool
	refuseTimer     bool
	refuseAction    bool

	connected []struct{ sessionID, correlationID int64 }
	closed    []struct {
		sessionID int64
		reason    CloseReason
	}
	messages []struct {
		sessionID, correlationID int64
		payload                  []byte
	}
	timers  []int64
	actions []ActionRequestKind
}

var _ LogAppender = (*fakeLogAppender)(nil)

func (f *fakeLogAppender) AppendConnectedSession(sessionID, correlationID, nowMs int64) bool {
	if f.refuseConnected {
		return false
	}
	f.connected = append(f.connected, struct{ sessionID, correlationID int64 }{sessionID, correlationID})
	return true
}

func (f *fakeLogAppender) AppendClosedSession(sessionID int64, reason CloseReason, nowMs int64) bool {
	if f.refuseClosed {
		return false
	}
	f.closed = append(f.closed, struct {
		sessionID int64
		reason    CloseReason
	}{sessionID, reason})
	return true
}

func (f *fakeLogAppender) AppendClientMessage(sessionID, correlationID int64, payload []byte, nowMs int64) bool {
	if f.refuseMessage {
		return false
	}
	f.messages = append(f.messages, struct {
		sessionID, correlationID int64
		payload                  []byte
	}{sessionID, correlationID, payload})
	return true
}

func (f *fakeLogAppender) AppendTimerEvent(correlationID, nowMs int64) bool {
	if f.refuseTimer {
		return false
	}
	f.timers = append(f.timers, correlationID)
	return true
}

func (f *fakeLogAppender) AppendActionRequest(action ActionRequestKind, nowMs int64) bool {
	if f.refuseAction {
		return false
	}
	f.actions = append(f.actions, action)
	return true
}

// fakeEgress is a per-session EgressPublisher recording every send.
type fakeEgress struct {
	connectedFlag bool
	sends         []struct {
		kind          EgressEventKind
		correlationID int64
		detail        string
	}
	challenges []struct {
		correlationID int64
		payload       []byte
	}
	refuseSend      bool
	refuseChallenge bool
}

var _ EgressPublisher = (*fakeEgress)(nil)

func newFakeEgress() *fakeEgress { return &fakeEgress{connectedFlag: true} }

func (e *fakeEgress) IsConnected() bool { return e.connectedFlag }

func (e *fakeEgress) Send(kind EgressEventKind, correlationID int64, detail string) bool {
	if e.refuseSend {
		return false
	}
	e.sends = append(e.sends, struct {
		kind          EgressEventKind
		correlationID int64
		detail        string
	}{kind, correlationID, detail})
	return true
}

func (e *fakeEgress) SendChallenge(correlationID int64, payload []byte) bool {
	if e.refuseChallenge {
		return false
	}
	e.challenges = append(e.challenges, struct {
		correlationID int64
		payload       []byte
	}{correlationID, payload})
	return true
}

// fakeConsensus delivers a queue of acks, one per Poll call.
type fakeConsensus struct {
	acks   []ActionAckKind
	pos    int
	closed bool
}

var _ ConsensusModuleAdapter = (*fakeConsensus)(nil)

func (c *fakeConsensus) Poll(onAck func(kind ActionAckKind)) int {
	if c.pos >= len(c.acks) {
		return 0
	}
	onAck(c.acks[c.pos])
	c.pos++
	return 1
}

func (c *fakeConsensus) Close() { c.closed = true }

// fakeIngress dispatches a queue of scripted calls, one per Poll.
type fakeIngress struct {
	frames []func(h IngressHandler)
	pos    int
	closed bool
}

var _ IngressAdapter = (*fakeIngress)(nil)

func (f *fakeIngress) Poll(h IngressHandler) int {
	if f.pos >= len(f.frames) {
		return 0
	}
	f.frames[f.pos](h)
	f.pos++
	return 1
}

func (f *fakeIngress) Close() { f.closed = true }

// fakeAuthenticator applies one scripted mode to every session: by default
// it challenges no one and authenticates immediately on
// OnProcessConnectedSession; rejectAll and challengeAll exercise rejection
// and the challenge path.
type fakeAuthenticator struct {
	// rejectAll and challengeAll, if set, control OnProcessConnectedSession's
	// behavior for every session; with neither set it authenticates at once.
	rejectAll    bool
	challengeAll bool

	processConnectedCalls  int
	processChallengedCalls int
}

var _ Authenticator = (*fakeAuthenticator)(nil)

func (a *fakeAuthenticator) OnConnectRequest(sessionID int64, credentialData []byte, nowMs int64) {}

func (a *fakeAuthenticator) OnChallengeResponse(sessionID int64, credentialData []byte, nowMs int64) {
}

func (a *fakeAuthenticator) OnProcessConnectedSession(proxy *SessionProxy, nowMs int64) {
	a.processConnectedCalls++
	switch {
	case a.rejectAll:
		proxy.SetRejected()
	case a.challengeAll:
		proxy.SetChallenged()
	default:
		proxy.SetAuthenticated()
	}
}

func (a *fakeAuthenticator) OnProcessChallengedSession(proxy *SessionProxy, nowMs int64) {
	a.processChallengedCalls++
	if a.rejectAll {
		proxy.SetRejected()
	} else {
		proxy.SetAuthenticated()
	}
}

func newDeps(log *fakeLogAppender, ingress *fakeIngress, consensus *fakeConsensus, auth Authenticator, egressFor func(id int64) EgressPublisher) Dependencies {
	return Dependencies{
		LogAppender:   log,
		Ingress:       ingress,
		Consensus:     consensus,
		Authenticator: auth,
		EgressFactory: func(responseStreamID int64, responseChannel string) EgressPublisher {
			return egressFor(responseStreamID)
		},
	}
}
