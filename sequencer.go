package sequencer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
)

// AmbientClient is the optional ambient messaging client a host transport
// may already be running. This module never constructs one — the cluster
// transport it would represent is out of this package's scope —
// but a host embedding the Sequencer inside such a client can supply one so
// its conductor is still driven once per tick, and so Close delegates
// teardown to it instead of closing ingress/consensus directly.
type AmbientClient interface {
	// DoWork drives the client's conductor once and returns the number of
	// work units performed.
	DoWork() int
	// Close tears down the client, including everything it owns.
	Close()
}

// Dependencies are the external collaborators a Sequencer requires. Every
// field except AmbientClient is mandatory.
type Dependencies struct {
	LogAppender   LogAppender
	Ingress       IngressAdapter
	Consensus     ConsensusModuleAdapter
	Authenticator Authenticator

	// EgressFactory obtains an EgressPublisher for a newly-connected
	// session's response stream/channel. Called synchronously from
	// OnSessionConnect.
	EgressFactory func(responseStreamID int64, responseChannel string) EgressPublisher

	// AmbientClient is optional; see AmbientClient.
	AmbientClient AmbientClient
}

func (d Dependencies) validate() error {
	switch {
	case d.LogAppender == nil:
		return fmt.Errorf("sequencer: Dependencies.LogAppender is required")
	case d.Ingress == nil:
		return fmt.Errorf("sequencer: Dependencies.Ingress is required")
	case d.Consensus == nil:
		return fmt.Errorf("sequencer: Dependencies.Consensus is required")
	case d.Authenticator == nil:
		return fmt.Errorf("sequencer: Dependencies.Authenticator is required")
	case d.EgressFactory == nil:
		return fmt.Errorf("sequencer: Dependencies.EgressFactory is required")
	}
	return nil
}

// Sequencer is the tick-driven agent that serializes session lifecycle
// events, client messages, and control-toggle-driven mode changes into a
// single replicated log. It is not safe for concurrent use: apart from
// State, MessageIndex, Done and Set on the ControlToggleRef returned by
// Toggle, which may be used from any goroutine, every method (Work and Close
// included) must only ever be called from the single thread that owns this
// Sequencer.
type Sequencer struct {
	cfg Config
	log Logger

	clock  *ClockPair
	state  atomicState
	toggle *ControlToggleRef

	servicesReady int
	fatalErr      error

	nextSessionID int64
	pending       []*Session
	active        map[int64]*Session
	rejected      []*Session

	logAppender     LogAppender
	ingress         IngressAdapter
	consensusModule ConsensusModuleAdapter
	auth            Authenticator
	egressFactory   func(responseStreamID int64, responseChannel string) EgressPublisher
	ambientClient   AmbientClient

	timers *TimerService

	messageIndex    atomic.Int64
	refusalThrottle *catrate.Limiter

	closeDone sync.Once
	done      chan struct{}
}

// New constructs a Sequencer. The returned value starts in StateInit; call
// Work repeatedly to drive it.
func New(cfg Config, deps Dependencies, opts ...Option) (*Sequencer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	o := resolveOptions(opts)

	s := &Sequencer{
		cfg:             cfg,
		log:             o.logger,
		clock:           NewClockPair(),
		toggle:          NewControlToggleRef(),
		nextSessionID:   1,
		active:          make(map[int64]*Session),
		logAppender:     deps.LogAppender,
		ingress:         deps.Ingress,
		consensusModule: deps.Consensus,
		auth:            deps.Authenticator,
		egressFactory:   deps.EgressFactory,
		ambientClient:   deps.AmbientClient,
		refusalThrottle: catrate.NewLimiter(map[time.Duration]int{time.Second: 1}),
		done:            make(chan struct{}),
	}
	s.timers = NewTimerService(s.onTimerEvent)
	return s, nil
}

// Toggle returns the shared control-toggle counter operators use to request
// mode changes. Safe to call Set on from any goroutine.
func (s *Sequencer) Toggle() *ControlToggleRef {
	return s.toggle
}

// State returns the Sequencer's current operational state.
func (s *Sequencer) State() State {
	return s.state.load()
}

// ServicesReady returns the current value of the servicesReady counter.
func (s *Sequencer) ServicesReady() int {
	return s.servicesReady
}

// ServiceCount returns the configured number of downstream services.
func (s *Sequencer) ServiceCount() int {
	return s.cfg.ServiceCount
}

// MessageIndex returns the number of log records this Sequencer has
// successfully appended. Safe to read concurrently with release-acquire
// semantics, for an external observer polling progress.
func (s *Sequencer) MessageIndex() int64 {
	return s.messageIndex.Load()
}

// Done returns a channel that is closed once the Sequencer reaches
// StateClosed.
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

// Work executes one tick and returns the number of work units
// performed. A non-nil error is always a *ContractError; once returned, it
// is returned again by every subsequent call without doing further work —
// the agent is terminated.
func (s *Sequencer) Work() (int, error) {
	if s.fatalErr != nil {
		return 0, s.fatalErr
	}

	s.clock.Set(s.clock.NowMs())
	now := s.clock.CachedMs()

	work := 0

	if s.ambientClient != nil {
		work += s.ambientClient.DoWork()
	}

	work += s.checkControlToggle(now)
	work += s.pollConsensus()
	if s.fatalErr != nil {
		return work, s.fatalErr
	}

	if s.state.load() == StateActive {
		work += s.processPendingSessions(now)
		work += s.timers.Poll(now)
		work += s.ingress.Poll(s)
		work += s.checkSessions(now)
	}

	work += s.processRejectedSessions(now)

	return work, s.fatalErr
}

// Close tears down the Sequencer's collaborators. If this
// Sequencer was not given an AmbientClient, it closes every active session
// and then the ingress/consensus adapters directly; otherwise teardown is
// delegated to the client, which is assumed to own those adapters' lifetime.
func (s *Sequencer) Close() {
	if s.ambientClient != nil {
		s.ambientClient.Close()
		return
	}
	for id := range s.active {
		delete(s.active, id)
	}
	s.ingress.Close()
	s.consensusModule.Close()
}

func (s *Sequencer) fail(err *ContractError) {
	if s.fatalErr != nil {
		return
	}
	s.fatalErr = err
	s.log.Err().Err(err).Log("sequencer: terminating on contract violation")
}

func (s *Sequencer) transition(from, to State) {
	s.state.store(to)
	s.log.Info().Str("from", from.String()).Str("to", to.String()).Log("sequencer: state transition")
}

func (s *Sequencer) signalClosed() {
	s.closeDone.Do(func() { close(s.done) })
}

// tryAppend wraps a LogAppender call, throttling the "still refused"
// warning log to at most once per go-catrate window per record kind, so a
// persistently unavailable log publication doesn't flood output.
func (s *Sequencer) tryAppend(kind string, fn func() bool) bool {
	if fn() {
		return true
	}
	if _, allowed := s.refusalThrottle.Allow(kind); allowed {
		s.log.Warning().Str("record_kind", kind).Log("sequencer: log append refused, retrying next tick")
	}
	return false
}

// --- §4.2 control-toggle state machine ---

func (s *Sequencer) checkControlToggle(now int64) int {
	t := s.toggle.load()
	state := s.state.load()

	if state != StateAbort && t == ToggleAbort {
		if s.tryAppend("ActionRequest", func() bool {
			return s.logAppender.AppendActionRequest(ActionAbort, now)
		}) {
			s.messageIndex.Add(1)
			s.transition(state, StateAbort)
			return 1
		}
		return 0
	}
	if t == ToggleAbort {
		// Already aborting; the signal is deliberately never reset.
		return 0
	}
	if state == StateActive && t == ToggleSnapshot {
		if s.tryAppend("ActionRequest", func() bool {
			return s.logAppender.AppendActionRequest(ActionSnapshot, now)
		}) {
			s.messageIndex.Add(1)
			s.transition(state, StateSnapshot)
			s.toggle.resetIfStillEquals(t)
			return 1
		}
		return 0
	}
	if state == StateActive && t == ToggleShutdown {
		if s.tryAppend("ActionRequest", func() bool {
			return s.logAppender.AppendActionRequest(ActionShutdown, now)
		}) {
			s.messageIndex.Add(1)
			s.transition(state, StateShutdown)
			s.toggle.resetIfStillEquals(t)
			return 1
		}
		return 0
	}
	if state == StateActive && t == ToggleSuspend {
		s.transition(state, StateSuspended)
		s.toggle.resetIfStillEquals(t)
		return 1
	}
	if state == StateSuspended && t == ToggleResume {
		s.transition(state, StateActive)
		s.toggle.resetIfStillEquals(t)
		return 1
	}
	if t == ToggleNeutral {
		return 0
	}
	if !t.valid() {
		s.fail(contractViolation(state, "unknown control toggle code %d", uint32(t)))
		return 0
	}
	s.fail(contractViolation(state, "control toggle %s is not valid in state %s", t, state))
	return 0
}

// --- §4.1 step 4: service acks ---

func (s *Sequencer) pollConsensus() int {
	return s.consensusModule.Poll(s.onActionAck)
}

func (s *Sequencer) onActionAck(kind ActionAckKind) {
	if s.fatalErr != nil {
		return
	}
	state := s.state.load()
	switch kind {
	case AckServiceReady:
		s.servicesReady++
		if s.servicesReady > s.cfg.ServiceCount {
			s.fail(contractViolation(state, "servicesReady overflow: %d > %d", s.servicesReady, s.cfg.ServiceCount))
			return
		}
		if state == StateInit && s.servicesReady == s.cfg.ServiceCount {
			s.transition(StateInit, StateActive)
		}
	case AckSnapshotComplete:
		if state != StateSnapshot {
			s.fail(contractViolation(state, "unexpected %s ack", kind))
			return
		}
		s.transition(StateSnapshot, StateActive)
	case AckShutdownComplete:
		if state != StateShutdown {
			s.fail(contractViolation(state, "unexpected %s ack", kind))
			return
		}
		s.transition(StateShutdown, StateClosed)
		s.signalClosed()
	case AckAbortComplete:
		if state != StateAbort {
			s.fail(contractViolation(state, "unexpected %s ack", kind))
			return
		}
		s.transition(StateAbort, StateClosed)
		s.signalClosed()
	default:
		s.fail(contractViolation(state, "unknown action ack kind %d", uint32(kind)))
	}
}

// --- §4.6 log append helpers ---

func (s *Sequencer) appendConnectedSession(sess *Session, now int64) bool {
	ok := s.tryAppend("ConnectedSession", func() bool {
		return s.logAppender.AppendConnectedSession(sess.ID, sess.connectCorrelationID, now)
	})
	if ok {
		sess.State = SessionOpen
		s.messageIndex.Add(1)
	}
	return ok
}

func (s *Sequencer) appendClosedSession(sess *Session, reason CloseReason, now int64) bool {
	ok := s.tryAppend("ClosedSession", func() bool {
		return s.logAppender.AppendClosedSession(sess.ID, reason, now)
	})
	if ok {
		s.messageIndex.Add(1)
		sess.State = SessionClosed
	}
	return ok
}

func (s *Sequencer) onTimerEvent(correlationID int64, now int64) bool {
	ok := s.tryAppend("TimerEvent", func() bool {
		return s.logAppender.AppendTimerEvent(correlationID, now)
	})
	if ok {
		s.messageIndex.Add(1)
	}
	return ok
}

// --- §4.3 pending-session processing ---

func (s *Sequencer) processPendingSessions(now int64) int {
	work := 0
	for i := len(s.pending) - 1; i >= 0; i-- {
		sess := s.pending[i]
		switch sess.State {
		case SessionInit, SessionConnected:
			if sess.connected() {
				sess.State = SessionConnected
				s.auth.OnProcessConnectedSession(&SessionProxy{session: sess, egress: sess.publication}, now)
			}
		case SessionChallenged:
			if sess.connected() {
				s.auth.OnProcessChallengedSession(&SessionProxy{session: sess, egress: sess.publication}, now)
			}
		case SessionAuthenticated:
			s.removePendingAt(i)
			sess.LastActivityMs = now
			// SessionConnected, not SessionAuthenticated: checkSessions only
			// retries a refused appendConnectedSession for sessions in
			// SessionConnected.
			sess.State = SessionConnected
			s.active[sess.ID] = sess
			s.appendConnectedSession(sess, now)
			work++
			continue
		case SessionRejected:
			s.removePendingAt(i)
			s.rejected = append(s.rejected, sess)
			continue
		}
		// A session still short of authentication is dropped silently once
		// it has been idle past sessionTimeoutMs.
		switch sess.State {
		case SessionInit, SessionConnected, SessionChallenged:
			if now > sess.LastActivityMs+s.cfg.SessionTimeoutMs {
				s.removePendingAt(i)
			}
		}
	}
	return work
}

func (s *Sequencer) removePendingAt(i int) {
	last := len(s.pending) - 1
	s.pending[i] = s.pending[last]
	s.pending[last] = nil
	s.pending = s.pending[:last]
}

// --- §4.4 active-session aging ---

func (s *Sequencer) checkSessions(now int64) int {
	work := 0
	for id, sess := range s.active {
		if sess.State == SessionClosed {
			// A user-initiated close is retried every tick, not gated on
			// idle time: OnSessionClose sets SessionClosed immediately and
			// the corresponding log record should not wait out
			// sessionTimeoutMs to be retried.
			if s.appendClosedSession(sess, CloseUserAction, now) {
				delete(s.active, id)
				work++
			}
			continue
		}

		if now > sess.LastActivityMs+s.cfg.SessionTimeoutMs {
			switch sess.State {
			case SessionOpen:
				sess.publication.Send(EgressError, sess.LastCorrelationID, DetailSessionInactive)
				if s.appendClosedSession(sess, CloseTimeout, now) {
					delete(s.active, id)
					work++
				} else {
					sess.State = SessionTimedOut
				}
			case SessionTimedOut:
				if s.appendClosedSession(sess, CloseTimeout, now) {
					delete(s.active, id)
					work++
				}
			default:
				delete(s.active, id)
				work++
			}
		} else if sess.State == SessionConnected {
			if s.appendConnectedSession(sess, now) {
				work++
			}
		}
	}
	return work
}

// --- §4.5 rejected-session drain ---

func (s *Sequencer) processRejectedSessions(now int64) int {
	work := 0
	for i := len(s.rejected) - 1; i >= 0; i-- {
		sess := s.rejected[i]

		var kind EgressEventKind
		var detail string
		if sess.RejectReason == RejectOverLimit {
			kind = EgressError
			detail = DetailConcurrentSessionLimit
		} else {
			kind = EgressAuthenticationRejected
			detail = DetailSessionFailedAuthentication
		}

		sent := false
		if sess.publication != nil {
			sent = sess.publication.Send(kind, sess.LastCorrelationID, detail)
		}

		if sent || now > sess.LastActivityMs+s.cfg.SessionTimeoutMs {
			s.removeRejectedAt(i)
			work++
		}
	}
	return work
}

func (s *Sequencer) removeRejectedAt(i int) {
	last := len(s.rejected) - 1
	s.rejected[i] = s.rejected[last]
	s.rejected[last] = nil
	s.rejected = s.rejected[:last]
}

// --- IngressHandler implementation ---

var _ IngressHandler = (*Sequencer)(nil)

func (s *Sequencer) OnSessionConnect(correlationID int64, responseStreamID int64, responseChannel string, credentialData []byte, nowMs int64) {
	id := s.nextSessionID
	s.nextSessionID++

	sess := &Session{
		ID:                   id,
		ResponseStreamID:     responseStreamID,
		ResponseChannel:      responseChannel,
		LastActivityMs:       nowMs,
		LastCorrelationID:    correlationID,
		connectCorrelationID: correlationID,
		publication:          s.egressFactory(responseStreamID, responseChannel),
	}

	if len(s.pending)+len(s.active) >= s.cfg.MaxConcurrentSessions {
		sess.State = SessionRejected
		sess.RejectReason = RejectOverLimit
		s.rejected = append(s.rejected, sess)
		return
	}

	sess.State = SessionInit
	s.pending = append(s.pending, sess)
	s.log.Debug().Int64("session_id", id).Log("sequencer: session admitted to pending")
	s.auth.OnConnectRequest(id, credentialData, nowMs)
}

func (s *Sequencer) OnSessionClose(clusterSessionID int64, nowMs int64) {
	if sess, ok := s.active[clusterSessionID]; ok {
		sess.State = SessionClosed
		return
	}
	for i, sess := range s.pending {
		if sess.ID == clusterSessionID {
			s.removePendingAt(i)
			return
		}
	}
}

func (s *Sequencer) OnSessionMessage(clusterSessionID int64, correlationID int64, payload []byte, nowMs int64) IngressAck {
	sess, ok := s.active[clusterSessionID]
	if !ok || sess.State != SessionOpen {
		return AckContinue
	}
	sess.LastCorrelationID = correlationID
	if s.tryAppend("ClientMessage", func() bool {
		return s.logAppender.AppendClientMessage(sess.ID, correlationID, payload, nowMs)
	}) {
		sess.LastActivityMs = nowMs
		s.messageIndex.Add(1)
		return AckContinue
	}
	return AckAbort
}

func (s *Sequencer) OnKeepAlive(correlationID int64, clusterSessionID int64, nowMs int64) {
	if sess, ok := s.active[clusterSessionID]; ok {
		sess.LastActivityMs = nowMs
		sess.LastCorrelationID = correlationID
		return
	}
	for _, sess := range s.pending {
		if sess.ID == clusterSessionID {
			sess.LastActivityMs = nowMs
			sess.LastCorrelationID = correlationID
			return
		}
	}
}

func (s *Sequencer) OnChallengeResponse(correlationID int64, clusterSessionID int64, credentialData []byte, nowMs int64) {
	for _, sess := range s.pending {
		if sess.ID == clusterSessionID && sess.State == SessionChallenged {
			sess.LastCorrelationID = correlationID
			s.auth.OnChallengeResponse(clusterSessionID, credentialData, nowMs)
			return
		}
	}
}

func (s *Sequencer) OnScheduleTimer(correlationID int64, deadlineMs int64) {
	s.timers.ScheduleTimer(correlationID, deadlineMs)
}

func (s *Sequencer) OnCancelTimer(correlationID int64) {
	s.timers.CancelTimer(correlationID)
}
