package engine

import "errors"

// Error taxonomy. Concrete errors wrap one of these with fmt.Errorf("%w: ...")
// so callers can classify with errors.Is.
var (
	// ErrIllegalAction: the action is not permitted in the current phase or turn.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvalidValue: a value is outside its field's bounds or malformed.
	ErrInvalidValue = errors.New("invalid value")
	// ErrNotFound: a referenced player or table does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTimeout: a decision was not received in time. Recovered by a default action.
	ErrTimeout = errors.New("decision timeout")
	// ErrInconsistentState: an internal invariant failed; the round is aborted.
	ErrInconsistentState = errors.New("inconsistent round state")
)
