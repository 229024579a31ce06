// Package errors provides structured error types for trackr.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for trackr.
const (
	// Input errors
	CodeInvalidInput Code = "INVALID_INPUT"

	// Lookup errors
	CodeProjectNotFound Code = "PROJECT_NOT_FOUND"
	CodeTaskNotFound    Code = "TASK_NOT_FOUND"
	CodeColumnNotFound  Code = "COLUMN_NOT_FOUND"
	CodeRoadmapNotFound Code = "ROADMAP_NOT_FOUND"

	// Completion collaborator errors
	CodeCompletionUnavailable Code = "COMPLETION_UNAVAILABLE"
	CodeCompletionTimeout     Code = "COMPLETION_TIMEOUT"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryConflict
	CategoryInternal
	CategoryTimeout
	CategoryUnavailable
)

var codeCategories = map[Code]Category{
	CodeInvalidInput:          CategoryBadRequest,
	CodeProjectNotFound:       CategoryNotFound,
	CodeTaskNotFound:          CategoryNotFound,
	CodeColumnNotFound:        CategoryNotFound,
	CodeRoadmapNotFound:       CategoryNotFound,
	CodeCompletionUnavailable: CategoryUnavailable,
	CodeCompletionTimeout:     CategoryTimeout,
	CodeConfigInvalid:         CategoryBadRequest,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryConflict:
		return 409
	case CategoryTimeout:
		return 504
	case CategoryUnavailable:
		return 503
	default:
		return 500
	}
}

// TrackrError is the structured error type for trackr.
type TrackrError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *TrackrError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *TrackrError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *TrackrError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category for HTTP status mapping.
func (e *TrackrError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *TrackrError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// MarshalJSON implements json.Marshaler.
func (e *TrackrError) MarshalJSON() ([]byte, error) {
	type alias TrackrError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a TrackrError with the same code.
func (e *TrackrError) Is(target error) bool {
	t, ok := target.(*TrackrError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *TrackrError) WithCause(err error) *TrackrError {
	return &TrackrError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrInvalidInput returns a validation error for a missing or malformed field.
func ErrInvalidInput(field, reason string) *TrackrError {
	return &TrackrError{
		Code: CodeInvalidInput,
		What: fmt.Sprintf("invalid %s", field),
		Why:  reason,
	}
}

// ErrRequired returns a validation error naming every missing field.
func ErrRequired(fields ...string) *TrackrError {
	verb := "is"
	if len(fields) > 1 {
		verb = "are"
	}
	return &TrackrError{
		Code: CodeInvalidInput,
		What: fmt.Sprintf("%s %s required", strings.Join(fields, " and "), verb),
	}
}

// ErrProjectNotFound returns an error when a project doesn't exist.
func ErrProjectNotFound(id int64) *TrackrError {
	return &TrackrError{
		Code: CodeProjectNotFound,
		What: fmt.Sprintf("project %d not found", id),
		Fix:  "Run 'trackr project list' to see available projects",
	}
}

// ErrTaskNotFound returns an error when a task doesn't exist.
func ErrTaskNotFound(id int64) *TrackrError {
	return &TrackrError{
		Code: CodeTaskNotFound,
		What: fmt.Sprintf("task %d not found", id),
		Fix:  "Run 'trackr task list --project <id>' to see available tasks",
	}
}

// ErrColumnNotFound returns an error when a kanban column doesn't exist.
func ErrColumnNotFound(id int64) *TrackrError {
	return &TrackrError{
		Code: CodeColumnNotFound,
		What: fmt.Sprintf("column %d not found", id),
	}
}

// ErrRoadmapNotFound returns an error when the roadmap file is missing.
func ErrRoadmapNotFound(path string) *TrackrError {
	return &TrackrError{
		Code: CodeRoadmapNotFound,
		What: fmt.Sprintf("roadmap not found at %s", path),
		Fix:  "Set the project's roadmap path, or run 'trackr roadmap detect' to find one",
	}
}

// ErrCompletionUnavailable returns an error when no completion provider can be used.
func ErrCompletionUnavailable(reason string) *TrackrError {
	return &TrackrError{
		Code: CodeCompletionUnavailable,
		What: "text completion is not available",
		Why:  reason,
		Fix:  "Set completion.api_key (or OPENAI_API_KEY) in the environment or config",
	}
}

// ErrCompletionTimeout returns an error when the completion call exceeds its deadline.
func ErrCompletionTimeout(duration string) *TrackrError {
	return &TrackrError{
		Code: CodeCompletionTimeout,
		What: "text completion timed out",
		Why:  fmt.Sprintf("no response received after %s", duration),
		Fix:  "Increase completion.timeout in config",
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *TrackrError {
	return &TrackrError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration: %s", field),
		Why:  reason,
		Fix:  "Check .trackr/config.yaml and fix the invalid field",
	}
}

// AsTrackrError attempts to convert an error to a TrackrError.
// Returns nil if the error is not a TrackrError.
func AsTrackrError(err error) *TrackrError {
	var te *TrackrError
	if stderrors.As(err, &te) {
		return te
	}
	return nil
}

// HasCode reports whether err is a TrackrError carrying code.
func HasCode(err error, code Code) bool {
	te := AsTrackrError(err)
	return te != nil && te.Code == code
}

// Wrap wraps a generic error into a TrackrError with unknown code.
func Wrap(err error, what string) *TrackrError {
	return &TrackrError{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
