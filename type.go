// File: lixenwraith/props/type.go
package props

import (
	"fmt"
	"time"
)

// Value resolves key as T through the loader's registry.
// Absent keys return an error wrapping ErrRequiredPropertyMissing.
func Value[T any](l *Loader, key string) (T, error) {
	var zero T
	v, _, err := l.Resolve(l.Property(key, TypeOf[T]()).WithRequired(true))
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newPropertyError(ErrConversionFailure, key, TypeOf[T]().String(),
			fmt.Errorf("converter produced %T", v))
	}
	return typed, nil
}

// ValueOr is like Value but returns fallback when key is absent or cannot be converted.
func ValueOr[T any](l *Loader, key string, fallback T) T {
	v, err := Value[T](l, key)
	if err != nil {
		return fallback
	}
	return v
}

// String retrieves a string value, with references expanded.
func (l *Loader) String(key string) (string, error) {
	return Value[string](l, key)
}

// Int64 retrieves an int64 value.
func (l *Loader) Int64(key string) (int64, error) {
	return Value[int64](l, key)
}

// Bool retrieves a boolean value. Anything other than a case-insensitive "true" is false.
func (l *Loader) Bool(key string) (bool, error) {
	return Value[bool](l, key)
}

// Float64 retrieves a float64 value.
func (l *Loader) Float64(key string) (float64, error) {
	return Value[float64](l, key)
}

// Duration retrieves a time.Duration value such as "1m30s".
func (l *Loader) Duration(key string) (time.Duration, error) {
	return Value[time.Duration](l, key)
}

// Strings retrieves a list value split on the effective components delimiter.
func (l *Loader) Strings(key string) ([]string, error) {
	return Value[[]string](l, key)
}
