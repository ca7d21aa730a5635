// Package errors provides structured error types for planner.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for planner.
const (
	// Domain errors, reported to callers as-is
	CodeValidation Code = "VALIDATION_FAILED"
	CodeConflict   Code = "CONFLICT"
	CodeNotFound   Code = "NOT_FOUND"

	// Infrastructure errors
	CodeBackendUnavailable Code = "BACKEND_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"

	// Request errors
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeBadRequest   Code = "BAD_REQUEST"

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
	CategoryUnavailable
	CategoryUnauthorized
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeValidation:         CategoryBadRequest,
	CodeConflict:           CategoryConflict,
	CodeNotFound:           CategoryNotFound,
	CodeBackendUnavailable: CategoryUnavailable,
	CodeInternal:           CategoryInternal,
	CodeUnauthorized:       CategoryUnauthorized,
	CodeBadRequest:         CategoryBadRequest,
	CodeConfigInvalid:      CategoryBadRequest,
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
	case CategoryUnauthorized:
		return 401
	case CategoryUnavailable:
		return 503
	default:
		return 500
	}
}

// FieldError is a single violated field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PlannerError is the structured error type for planner.
type PlannerError struct {
	Code   Code         `json:"code"`
	What   string       `json:"what"`
	Why    string       `json:"why,omitempty"`
	Fix    string       `json:"fix,omitempty"`
	Fields []FieldError `json:"fields,omitempty"`
	Cause  error        `json:"-"`
}

// Error implements the error interface.
func (e *PlannerError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.FieldMessages(), "; "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// FieldMessages returns the violated-field messages in order.
func (e *PlannerError) FieldMessages() []string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return msgs
}

// UserMessage returns a user-friendly message for CLI output.
func (e *PlannerError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	for _, f := range e.Fields {
		b.WriteString("\n  - ")
		b.WriteString(f.Message)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category for HTTP status mapping.
func (e *PlannerError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *PlannerError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// MarshalJSON implements json.Marshaler.
func (e *PlannerError) MarshalJSON() ([]byte, error) {
	type alias PlannerError
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

// Is reports whether target is a PlannerError with the same code.
func (e *PlannerError) Is(target error) bool {
	t, ok := target.(*PlannerError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *PlannerError) WithCause(err error) *PlannerError {
	cp := *e
	cp.Cause = err
	return &cp
}

// --- Error constructors ---

// ErrValidation returns an error listing every violated field of an entity.
func ErrValidation(entity string, fields []FieldError) *PlannerError {
	return &PlannerError{
		Code:   CodeValidation,
		What:   fmt.Sprintf("%s validation failed", entity),
		Fix:    "Correct the listed fields and retry",
		Fields: fields,
	}
}

// ErrConflict returns an error for a violated uniqueness constraint.
func ErrConflict(entity, field, value string) *PlannerError {
	return &PlannerError{
		Code: CodeConflict,
		What: fmt.Sprintf("%s with %s %q already exists", entity, field, value),
		Why:  fmt.Sprintf("The %s field must be unique", field),
		Fix:  fmt.Sprintf("Choose a different %s", field),
	}
}

// ErrNotFound returns an error when an entity doesn't exist.
func ErrNotFound(entity, id string) *PlannerError {
	return &PlannerError{
		Code: CodeNotFound,
		What: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// ErrBackendUnavailable wraps an infrastructure failure of a storage backend.
func ErrBackendUnavailable(backend, op string, cause error) *PlannerError {
	return &PlannerError{
		Code:  CodeBackendUnavailable,
		What:  fmt.Sprintf("%s backend could not complete %s", backend, op),
		Cause: cause,
	}
}

// ErrInternal returns a generic internal error.
func ErrInternal(what string, cause error) *PlannerError {
	return &PlannerError{
		Code:  CodeInternal,
		What:  what,
		Cause: cause,
	}
}

// ErrUnauthorized returns an error for a rejected caller credential.
func ErrUnauthorized(reason string) *PlannerError {
	return &PlannerError{
		Code: CodeUnauthorized,
		What: "not authorized",
		Why:  reason,
	}
}

// ErrBadRequest returns an error for a malformed request.
func ErrBadRequest(what string) *PlannerError {
	return &PlannerError{
		Code: CodeBadRequest,
		What: what,
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *PlannerError {
	return &PlannerError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration: %s", field),
		Why:  reason,
		Fix:  "Check planner.yaml or the matching PLANNER_ environment variable",
	}
}

// Violations collects field errors so every violated constraint is reported.
type Violations []FieldError

// Add records a violation of field.
func (v *Violations) Add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns a validation error for entity, or nil when nothing was recorded.
func (v Violations) Err(entity string) error {
	if len(v) == 0 {
		return nil
	}
	return ErrValidation(entity, []FieldError(v))
}

// AsPlannerError attempts to convert an error to a PlannerError.
// Returns nil if the error is not a PlannerError.
func AsPlannerError(err error) *PlannerError {
	var pe *PlannerError
	if stderrors.As(err, &pe) {
		return pe
	}
	return nil
}

// CodeOf returns the code of err, or "" if it carries none.
func CodeOf(err error) Code {
	if pe := AsPlannerError(err); pe != nil {
		return pe.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsValidation reports whether err is a VALIDATION_FAILED error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsConflict reports whether err is a CONFLICT error.
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }

// IsDomain reports whether err is a domain error that must reach the caller
// unchanged: validation, conflict or not-found.
func IsDomain(err error) bool {
	switch CodeOf(err) {
	case CodeValidation, CodeConflict, CodeNotFound:
		return true
	}
	return false
}

// Wrap wraps a generic error into an internal PlannerError.
func Wrap(err error, what string) *PlannerError {
	return ErrInternal(what, err)
}
