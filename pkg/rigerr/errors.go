// Package rigerr defines the structured error types surfaced by the
// configuration pipeline.
//
// Three classes exist: OptionError for unusable invocation parameters,
// ConfigError for unusable configuration documents, and InternalError for
// broken pipeline invariants. Plain filesystem errors pass through wrapped
// so callers can still match them with errors.Is.
package rigerr

import (
	"errors"
	"fmt"
	"strings"
)

// Violation is one schema or semantic check failure. Path is a
// JSON-pointer-like location inside the configuration document, for
// example "apps[0].name".
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// OptionError reports an unusable invocation parameter, such as a missing
// config path or an unsupported file extension.
type OptionError struct {
	Option  string
	Message string
	Err     error
}

func (e *OptionError) Error() string {
	msg := e.Message
	if e.Option != "" {
		msg = fmt.Sprintf("invalid option %q: %s", e.Option, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *OptionError) Unwrap() error { return e.Err }

// NewOption creates an OptionError for the named invocation parameter.
func NewOption(option, format string, args ...any) *OptionError {
	return &OptionError{Option: option, Message: fmt.Sprintf(format, args...)}
}

// ConfigError reports an unusable configuration document. Violations is
// populated when the failure came from schema validation and is empty for
// semantic failures discovered later in resolution.
type ConfigError struct {
	Message    string
	Violations []Violation
	Err        error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if len(e.Violations) > 0 {
		parts := make([]string, len(e.Violations))
		for i, v := range e.Violations {
			parts[i] = v.String()
		}
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(parts, "; "))
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfig creates a ConfigError with a formatted message.
func NewConfig(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// NewSchema creates a ConfigError carrying schema violations.
func NewSchema(violations []Violation) *ConfigError {
	return &ConfigError{
		Message:    fmt.Sprintf("configuration failed schema validation (%d violation(s))", len(violations)),
		Violations: violations,
	}
}

// InternalError reports a violated pipeline invariant. It signals a defect
// in the pipeline itself, never in user input.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return "internal: " + e.Message + ": " + e.Err.Error()
	}
	return "internal: " + e.Message
}

func (e *InternalError) Unwrap() error { return e.Err }

// NewInternal creates an InternalError with a formatted message.
func NewInternal(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// IsOption reports whether err is or wraps an OptionError.
func IsOption(err error) bool {
	var e *OptionError
	return errors.As(err, &e)
}

// IsConfig reports whether err is or wraps a ConfigError.
func IsConfig(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsInternal reports whether err is or wraps an InternalError.
func IsInternal(err error) bool {
	var e *InternalError
	return errors.As(err, &e)
}

// AsConfig returns the ConfigError wrapped in err, if any.
func AsConfig(err error) (*ConfigError, bool) {
	var e *ConfigError
	ok := errors.As(err, &e)
	return e, ok
}
