package main

import (
	"fmt"
	"sync"

	"github.com/arcshard/sequencer"
)

// memLogAppender is an in-memory stand-in for the replicated log's
// non-blocking append interface. It always accepts, and prints
// each record so the demo's log order is visible on stdout.
type memLogAppender struct {
	mu    sync.Mutex
	count int
}

var _ sequencer.LogAppender = (*memLogAppender)(nil)

func (a *memLogAppender) AppendConnectedSession(sessionID, correlationID, nowMs int64) bool {
	return a.record(fmt.Sprintf("ConnectedSession session=%d corr=%d", sessionID, correlationID))
}

func (a *memLogAppender) AppendClosedSession(sessionID int64, reason sequencer.CloseReason, nowMs int64) bool {
	return a.record(fmt.Sprintf("ClosedSession session=%d reason=%s", sessionID, reason))
}

func (a *memLogAppender) AppendClientMessage(sessionID, correlationID int64, payload []byte, nowMs int64) bool {
	return a.record(fmt.Sprintf("ClientMessage session=%d corr=%d bytes=%d", sessionID, correlationID, len(payload)))
}

func (a *memLogAppender) AppendTimerEvent(correlationID, nowMs int64) bool {
	return a.record(fmt.Sprintf("TimerEvent corr=%d", correlationID))
}

func (a *memLogAppender) AppendActionRequest(action sequencer.ActionRequestKind, nowMs int64) bool {
	return a.record(fmt.Sprintf("ActionRequest action=%s", action))
}

func (a *memLogAppender) record(line string) bool {
	a.mu.Lock()
	a.count++
	n := a.count
	a.mu.Unlock()
	fmt.Printf("log[%04d]: %s\n", n, line)
	return true
}

// memEgressPublisher is a stand-in for a session's response-channel
// publication. It is always connected and prints every event sent through
// it. Challenge payloads are additionally captured into a shared map so the
// demo's scripted client can echo them back, completing the handshake the
// way a real client would after reading the challenge off the wire.
type memEgressPublisher struct {
	sessionID  int64
	challenges map[int64][]byte
}

var _ sequencer.EgressPublisher = (*memEgressPublisher)(nil)

func (p *memEgressPublisher) IsConnected() bool { return true }

func (p *memEgressPublisher) Send(kind sequencer.EgressEventKind, correlationID int64, detail string) bool {
	fmt.Printf("egress: session=%d kind=%s corr=%d detail=%q\n", p.sessionID, kind, correlationID, detail)
	return true
}

func (p *memEgressPublisher) SendChallenge(correlationID int64, payload []byte) bool {
	fmt.Printf("egress: session=%d challenge corr=%d bytes=%d\n", p.sessionID, correlationID, len(payload))
	p.challenges[p.sessionID] = payload
	return true
}

// newMemEgressFactory returns a publisher factory and the shared map every
// publisher it creates writes captured challenge payloads into, keyed by
// session id.
func newMemEgressFactory() (factory func(responseStreamID int64, responseChannel string) sequencer.EgressPublisher, challenges map[int64][]byte) {
	challenges = make(map[int64][]byte)
	var nextID int64
	factory = func(responseStreamID int64, responseChannel string) sequencer.EgressPublisher {
		nextID++
		return &memEgressPublisher{sessionID: nextID, challenges: challenges}
	}
	return factory, challenges
}

// memConsensus delivers serviceCount READY acks, one per Poll call, then
// goes quiet. It stands in for the downstream services adapter.
type memConsensus struct {
	remaining int
}

var _ sequencer.ConsensusModuleAdapter = (*memConsensus)(nil)

func newMemConsensus(serviceCount int) *memConsensus {
	return &memConsensus{remaining: serviceCount}
}

func (c *memConsensus) Poll(onAck func(kind sequencer.ActionAckKind)) int {
	if c.remaining == 0 {
		return 0
	}
	c.remaining--
	onAck(sequencer.AckServiceReady)
	return 1
}

func (c *memConsensus) Close() {}

// scriptedFrame is one inbound event the demo's ingress adapter replays.
type scriptedFrame func(h sequencer.IngressHandler, nowMs int64)

// memIngress replays a fixed script of inbound frames, one per tick, in
// order. A real IngressAdapter would instead drain a ring buffer fed by
// network I/O; this is enough to exercise the
// full session lifecycle end to end.
type memIngress struct {
	script []scriptedFrame
	pos    int
	nowMs  func() int64
}

var _ sequencer.IngressAdapter = (*memIngress)(nil)

func newMemIngress(script []scriptedFrame, nowMs func() int64) *memIngress {
	return &memIngress{script: script, nowMs: nowMs}
}

func (m *memIngress) Poll(h sequencer.IngressHandler) int {
	if m.pos >= len(m.script) {
		return 0
	}
	frame := m.script[m.pos]
	m.pos++
	if frame == nil {
		// A nil step deliberately lets a tick pass with no new inbound
		// frame, giving the authenticator's per-tick poll a chance to act.
		return 0
	}
	frame(h, m.nowMs())
	return 1
}

func (m *memIngress) Close() {}
