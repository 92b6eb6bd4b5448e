package tracking

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyAction       = errors.New("event action is empty")
	ErrInvalidUTF8       = errors.New("event text is not valid UTF-8")
	ErrMalformedRecord   = errors.New("malformed event record")
	ErrMalformedSnapshot = errors.New("malformed backlog snapshot")
	ErrPipelineClosed    = errors.New("tracking pipeline is closed")
	ErrPipelineRunning   = errors.New("tracking pipeline is already running")
	ErrPipelineNotActive = errors.New("tracking pipeline is not running")
	ErrNilTransport      = errors.New("transport is required")
	ErrNilStore          = errors.New("store is required")
	ErrNoTransition      = errors.New("no delivery transition available")

	// Configuration errors
	ErrInvalidAPIKey    = errors.New("invalid api key")
	ErrInvalidSecretKey = errors.New("invalid secret key")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidLanguage  = errors.New("invalid language")
	ErrInvalidClientIP  = errors.New("invalid client ip")
	ErrInvalidOption    = errors.New("invalid option")
)

// ConfigError describes a rejected configuration value.
// The previous value of the field is kept when it is returned.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tracking config: %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Err: err}
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// DecodeError reports a snapshot record that could not be restored.
// Index is the zero-based position of the record in the snapshot array.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("snapshot record %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// transitionError is returned when the deliverer fires an event that has no
// row in its transition table.
type transitionError struct {
	state string
	event string
}

func (e *transitionError) Error() string {
	return fmt.Sprintf("no transition from state %q for event %q", e.state, e.event)
}

func (e *transitionError) Unwrap() error {
	return ErrNoTransition
}
