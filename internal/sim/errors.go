package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAction rejects an action before any state is touched.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvariantViolation means a computed state broke a structural
	// invariant. The turn is aborted and the input state stands.
	ErrInvariantViolation = errors.New("state invariant violated")

	// ErrRandomSource means the engine was asked to simulate without a
	// usable random stream.
	ErrRandomSource = errors.New("random source unavailable")

	// ErrGameConfig rejects an unusable initial configuration.
	ErrGameConfig = errors.New("invalid game config")
)

// InvalidActionError carries which decision field failed and why. It
// unwraps to ErrInvalidAction so callers can match with errors.Is.
type InvalidActionError struct {
	Field  string
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action: %s: %s", e.Field, e.Reason)
}

func (e *InvalidActionError) Unwrap() error { return ErrInvalidAction }

func invalidf(field, format string, args ...any) error {
	return &InvalidActionError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
