// Package errs defines the error types returned to API clients: HTTPError
// for consistent JSON error responses and FieldError for per-field
// validation detail.
package errs

import "strings"

// FieldError is a field-level validation error.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType describes what the client should do next.
type ActionType string

const (
	ActionTypeRedirect ActionType = "redirect"
)

// Action is an optional client instruction attached to an error, e.g.
// "redirect to login".
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the error shape serialized to API clients. Override lets
// the global error handler decide whether to replace the message.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors"`
	Action *Action      `json:"action"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError, regardless of code or status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy with only the message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
		Action:   e.Action,
	}
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST",
// the format used for machine-readable error codes.
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
