// Package errors provides structured error handling for brainless.
//
// Every fatal condition surfaced by the schema parser, the feature pipeline,
// the model search and the predictor facade is an *Error carrying an
// ErrorType. Callers branch on the type with IsType or the predicate helpers
// (IsSchemaError, IsNotTrained, ...) instead of matching message strings.
//
// Row-level anomalies (missing attributes, unseen categories, malformed text)
// are never reported through this package; transformers absorb them.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConflict represents state conflicts such as refitting a fitted pipeline
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeConnection represents connection errors to data sources and stores
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeConfig represents configuration errors, including an invalid problem kind
	// and invalid hyperparameter overrides
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents data processing errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeSchema represents malformed or ambiguous role declarations
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeEmptyColumn represents a declared column with no usable values at fit time
	ErrorTypeEmptyColumn ErrorType = "empty_column"
	// ErrorTypePipelineNotFitted represents a transform requested before fit
	ErrorTypePipelineNotFitted ErrorType = "pipeline_not_fitted"
	// ErrorTypeNotTrained represents a prediction requested before a successful train
	ErrorTypeNotTrained ErrorType = "not_trained"
	// ErrorTypeNoViableModel represents a search in which every candidate failed
	ErrorTypeNoViableModel ErrorType = "no_viable_model"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type with no message,
// which lets the package-level sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value, or nil when absent.
func (e *Error) Detail(key string) interface{} {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

// Sentinels for errors.Is. They carry no message and never a stack.
var (
	ErrSchema            = &Error{Type: ErrorTypeSchema}
	ErrEmptyColumn       = &Error{Type: ErrorTypeEmptyColumn}
	ErrPipelineNotFitted = &Error{Type: ErrorTypePipelineNotFitted}
	ErrNotTrained        = &Error{Type: ErrorTypeNotTrained}
	ErrNoViableModel     = &Error{Type: ErrorTypeNoViableModel}
	ErrConfig            = &Error{Type: ErrorTypeConfig}
)

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, errType, fmt.Sprintf(format, args...))
	if wrapped.Stack == nil {
		wrapped.Stack = captureStack(2)
	}
	return wrapped
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsSchemaError reports whether err is a SchemaError.
func IsSchemaError(err error) bool { return IsType(err, ErrorTypeSchema) }

// IsEmptyColumn reports whether err is an EmptyColumnError.
func IsEmptyColumn(err error) bool { return IsType(err, ErrorTypeEmptyColumn) }

// IsPipelineNotFitted reports whether err is a PipelineNotFittedError.
func IsPipelineNotFitted(err error) bool { return IsType(err, ErrorTypePipelineNotFitted) }

// IsNotTrained reports whether err is a NotTrainedError.
func IsNotTrained(err error) bool { return IsType(err, ErrorTypeNotTrained) }

// IsNoViableModel reports whether err is a NoViableModelError.
func IsNoViableModel(err error) bool { return IsType(err, ErrorTypeNoViableModel) }

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool { return IsType(err, ErrorTypeConfig) }

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
