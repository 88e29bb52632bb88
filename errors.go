// FILE: lixenwraith/props/errors.go
package props

import (
	"errors"
	"fmt"
)

// Fatal resolution errors. Every error returned by the engine wraps exactly one of these.
var (
	// ErrRequiredPropertyMissing is returned when a required key is absent from every source.
	ErrRequiredPropertyMissing = errors.New("required property not found")
	// ErrUnsupportedConversion is returned when no converter exists for the declared type.
	ErrUnsupportedConversion = errors.New("unsupported property type")
	// ErrConversionFailure is returned when a converter rejects the raw value.
	ErrConversionFailure = errors.New("illegal property value format")
	// ErrInvalidChildTarget is returned when a child relation targets a type without nested structure.
	ErrInvalidChildTarget = errors.New("invalid child target")
	// ErrReferenceCycle is returned when ${...} expansion does not terminate.
	ErrReferenceCycle = errors.New("reference cycle detected")
)

// PropertyError describes a fatal failure while resolving a single property.
type PropertyError struct {
	Key   string // fully prefixed property key
	Type  string // declared type, empty when not relevant
	Err   error  // one of the package sentinels
	Cause error  // underlying failure, may be nil
}

// Error implements error.
func (e *PropertyError) Error() string {
	if e.Cause != nil && errors.Is(e.Cause, e.Err) {
		return fmt.Sprintf("property %q: %v", e.Key, e.Cause)
	}
	msg := fmt.Sprintf("%v for property %q", e.Err, e.Key)
	if e.Type != "" {
		msg += fmt.Sprintf(" (type %s)", e.Type)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *PropertyError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newPropertyError(sentinel error, key, typ string, cause error) *PropertyError {
	return &PropertyError{Key: key, Type: typ, Err: sentinel, Cause: cause}
}
