package sequencer

import "fmt"

// ContractError indicates a fatal contract violation: an unexpected state
// for an action acknowledgement, an unknown control-toggle code, or a
// servicesReady overflow. It is never used for transient failures
// — those are reported as plain booleans and retried, not returned as
// errors. A ContractError returned from Work terminates the tick loop; the
// host is expected to treat it as fatal.
type ContractError struct {
	// Reason is a short, stable, human-readable description of which
	// contract was violated.
	Reason string
	// State is the Sequencer's operational state at the moment the
	// violation was detected.
	State State
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("sequencer: contract violation: %s (state=%s)", e.Reason, e.State)
}

func contractViolation(state State, format string, args ...any) *ContractError {
	return &ContractError{Reason: fmt.Sprintf(format, args...), State: state}
}
