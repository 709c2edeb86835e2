package errs

import (
	"net/http"
)

// NewUnauthorizedError creates a 401 HTTPError.
func NewUnauthorizedError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusUnauthorized)),
		Message:  message,
		Status:   http.StatusUnauthorized,
		Override: override,
	}
}

// NewForbiddenError creates a 403 HTTPError.
func NewForbiddenError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusForbidden)),
		Message:  message,
		Status:   http.StatusForbidden,
		Override: override,
	}
}

// NewBadRequestError creates a 400 HTTPError. code overrides the default
// "BAD_REQUEST"; errors and action are optional extras.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

// NewNotFoundError creates a 404 HTTPError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewConflictError creates a 409 HTTPError, used for uniqueness
// violations like an already-registered email.
func NewConflictError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusConflict)),
		Message:  message,
		Status:   http.StatusConflict,
		Override: override,
	}
}

// NewInternalServerError creates a generic 500 HTTPError. The real error
// stays in the logs; clients get the status text only.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// NewStoreUnavailableError creates a 503 HTTPError for the case where the
// backing store cannot be reached.
func NewStoreUnavailableError() *HTTPError {
	return &HTTPError{
		Code:     "STORE_UNAVAILABLE",
		Message:  "The service is temporarily unavailable, please retry.",
		Status:   http.StatusServiceUnavailable,
		Override: false,
	}
}

// ValidationError converts a validation failure into a 400 HTTPError.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}
