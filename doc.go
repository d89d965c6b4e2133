// Package sequencer implements the single-threaded serialization point of a
// consensus cluster's leader node.
//
// A Sequencer ingests four independent input streams — client requests
// (via an IngressAdapter), timer expiries (via a TimerService), operator
// control-toggle commands (via a shared atomic counter), and downstream
// service acknowledgements (via a ConsensusModuleAdapter) — and imposes a
// total order on them by appending records to a replicated log (via a
// LogAppender). It also owns the lifecycle of client sessions, including a
// two-phase authentication handshake driven by a pluggable Authenticator.
//
// The Sequencer is a cooperative agent: repeatedly calling Work advances it
// by one tick. No Sequencer method blocks, allocates on its steady-state
// hot path, or takes a lock; every collaborator it depends on is expressed
// as a non-blocking poll/append interface so a host scheduler can drive many
// such agents, or back off when all of them report zero work performed.
package sequencer
