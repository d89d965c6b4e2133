package sequencer

import (
	"bytes"

	"github.com/google/uuid"
)

// MemAuthenticator is a reference Authenticator suitable for demos and
// tests: it challenges every connecting session with a random nonce and
// authenticates it only if the client echoes that nonce back verbatim in a
// ChallengeResponse. It never inspects real credentials — this is not a
// security-hardened authenticator, just a runnable stand-in for pluggable
// credential-checking logic that lives outside this package.
//
// Like every Authenticator, it is only ever called from the Sequencer's
// single agent thread, so it needs no synchronization of its own.
type MemAuthenticator struct {
	pending map[int64]*memAuthState
}

type memAuthState struct {
	nonce     []byte
	responded bool
	accepted  bool
	sent      bool
}

// NewMemAuthenticator constructs a MemAuthenticator.
func NewMemAuthenticator() *MemAuthenticator {
	return &MemAuthenticator{pending: make(map[int64]*memAuthState)}
}

var _ Authenticator = (*MemAuthenticator)(nil)

func (a *MemAuthenticator) OnConnectRequest(sessionID int64, credentialData []byte, nowMs int64) {
	nonce, err := uuid.New().MarshalBinary()
	if err != nil {
		// uuid.UUID.MarshalBinary never actually fails; treat as
		// unreachable rather than adding a dead error path below.
		panic(err)
	}
	a.pending[sessionID] = &memAuthState{nonce: nonce}
}

func (a *MemAuthenticator) OnChallengeResponse(sessionID int64, credentialData []byte, nowMs int64) {
	st, ok := a.pending[sessionID]
	if !ok {
		return
	}
	st.responded = true
	st.accepted = bytes.Equal(st.nonce, credentialData)
}

func (a *MemAuthenticator) OnProcessConnectedSession(proxy *SessionProxy, nowMs int64) {
	st, ok := a.pending[proxy.SessionID()]
	if !ok || st.sent {
		return
	}
	if proxy.SendChallenge(proxy.SessionID(), st.nonce) {
		st.sent = true
		proxy.SetChallenged()
	}
}

func (a *MemAuthenticator) OnProcessChallengedSession(proxy *SessionProxy, nowMs int64) {
	st, ok := a.pending[proxy.SessionID()]
	if !ok || !st.responded {
		return
	}
	delete(a.pending, proxy.SessionID())
	if st.accepted {
		proxy.SetAuthenticated()
	} else {
		proxy.SetRejected()
	}
}
