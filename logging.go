package sequencer

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging interface the Sequencer logs through.
// It is satisfied directly by *logiface.Logger[*stumpy.Event] but is
// expressed narrowly here so a test double can be substituted. The event
// type is fixed to *stumpy.Event: a logger built on another logiface.Event
// implementation does not satisfy it.
type Logger interface {
	Debug() *logiface.Builder[*stumpy.Event]
	Info() *logiface.Builder[*stumpy.Event]
	Warning() *logiface.Builder[*stumpy.Event]
	Err() *logiface.Builder[*stumpy.Event]
}

// NewJSONLogger builds a Logger writing newline-delimited JSON to w, using
// the stumpy logiface backend. level is the minimum logiface.Level that
// will be emitted.
func NewJSONLogger(w io.Writer, level logiface.Level) Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	)
}

// noopLogger is the default Logger when none is supplied via WithLogger. A
// nil *logiface.Logger is a fully-disabled logger: every Builder method it
// returns is nil-safe and every call is a no-op.
var noopLogger Logger = (*logiface.Logger[*stumpy.Event])(nil)
