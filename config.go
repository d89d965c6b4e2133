package sequencer

import "fmt"

// Config holds the Sequencer's immutable-after-construction configuration.
type Config struct {
	// MaxConcurrentSessions bounds pending+active sessions at the moment
	// of admission.
	MaxConcurrentSessions int
	// SessionTimeoutMs is the uniform wall-clock idle timeout applied to
	// both pre-auth and open sessions.
	SessionTimeoutMs int64
	// ServiceCount is the number of downstream services whose readiness
	// gates INIT -> ACTIVE.
	ServiceCount int
}

func (c Config) validate() error {
	if c.MaxConcurrentSessions <= 0 {
		return fmt.Errorf("sequencer: MaxConcurrentSessions must be > 0, got %d", c.MaxConcurrentSessions)
	}
	if c.SessionTimeoutMs <= 0 {
		return fmt.Errorf("sequencer: SessionTimeoutMs must be > 0, got %d", c.SessionTimeoutMs)
	}
	if c.ServiceCount <= 0 {
		return fmt.Errorf("sequencer: ServiceCount must be > 0, got %d", c.ServiceCount)
	}
	return nil
}

// Option configures a Sequencer at construction using the functional
// options pattern.
type Option func(*options)

type options struct {
	logger Logger
}

// WithLogger injects a structured logger. If omitted, the Sequencer logs
// nowhere (see noopLogger).
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func resolveOptions(opts []Option) *options {
	o := &options{logger: noopLogger}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
