package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig matches every configuration error with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// Error is a configuration error: a missing or invalid option, an unknown
// format, or a source that lacks the configured table, column or path. It is
// always raised before the source is modified.
type Error struct {
	msg string
	err error
}

// Errorf formats a configuration error. A %w verb wraps its operand as the
// cause.
func Errorf(format string, args ...any) error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{msg: wrapped.Error(), err: errors.Unwrap(wrapped)}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidConfig
}

// IsConfigError reports whether err is, or wraps, a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
