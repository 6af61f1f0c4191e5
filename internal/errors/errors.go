// Package errors defines the coded errors returned by the page build pipeline.
//
// Every failure surfaced to a caller is a *BuildError carrying a Code, the
// page file name and, when one was involved, the section ref and pipeline
// stage that failed.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a build failure.
type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeNotFound Code = "NOT_FOUND" // section missing from both overrides and disk
	CodeIO       Code = "IO"        // read, write or mkdir failure
	CodeTemplate Code = "TEMPLATE"  // template parse or expansion failure
	CodeCompile  Code = "COMPILE"   // markup compilation failure
	CodeConfig   Code = "CONFIG"    // missing or invalid option
)

// BuildError is a structured pipeline error.
type BuildError struct {
	Code    Code
	Message string
	Page    string
	Section string
	Stage   string
	Details map[string]interface{}
	Wrapped error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Code))
	b.WriteString("]")
	if e.Page != "" {
		fmt.Fprintf(&b, " page %q:", e.Page)
	}
	if e.Section != "" {
		fmt.Fprintf(&b, " section %q", e.Section)
		if e.Stage != "" {
			fmt.Fprintf(&b, " (%s)", e.Stage)
		}
		b.WriteString(":")
	} else if e.Stage != "" {
		fmt.Fprintf(&b, " (%s)", e.Stage)
		b.WriteString(":")
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

func (e *BuildError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a *BuildError with the same code.
func (e *BuildError) Is(target error) bool {
	var t *BuildError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates a BuildError with the given code and message.
func New(code Code, message string) *BuildError {
	return &BuildError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a BuildError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *BuildError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err. A nil err yields nil.
func Wrap(err error, code Code, message string) *BuildError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps err with a formatted message. A nil err yields nil.
func Wrapf(err error, code Code, format string, args ...interface{}) *BuildError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithPage records the page file name.
func (e *BuildError) WithPage(fileName string) *BuildError {
	e.Page = fileName
	return e
}

// WithSection records the section ref that failed.
func (e *BuildError) WithSection(ref string) *BuildError {
	e.Section = ref
	return e
}

// WithStage records the pipeline stage that failed.
func (e *BuildError) WithStage(stage string) *BuildError {
	e.Stage = stage
	return e
}

// WithDetail adds a detail to the error.
func (e *BuildError) WithDetail(key string, value interface{}) *BuildError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Enrich attaches page and stage to err if it is a BuildError that does not
// carry them yet. Any other error is wrapped with fallback.
func Enrich(err error, page, stage string, fallback Code) *BuildError {
	if err == nil {
		return nil
	}
	var be *BuildError
	if !errors.As(err, &be) {
		be = Wrap(err, fallback, "build failed")
	}
	if be.Page == "" {
		be.Page = page
	}
	if be.Stage == "" {
		be.Stage = stage
	}
	return be
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// GetCode returns the code of err, or CodeUnknown.
func GetCode(err error) Code {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeUnknown
}
