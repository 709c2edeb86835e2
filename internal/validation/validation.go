// Package validation binds and validates request data. Rules come from
// `validate` struct tags enforced by the validator library; failures are
// converted into field-level errors the client can render.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/calendar-todo/backend/internal/errs"
)

// Validatable is implemented by request payload types. Validate returns
// validator.ValidationErrors or CustomValidationErrors on failure.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a validation issue that cannot be expressed
// via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that
// satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds the request into payload and validates it,
// returning a 400 *errs.HTTPError with field errors on failure. payload
// must be a pointer.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError("Malformed request body.", false, nil, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		customErrors, ok := err.(CustomValidationErrors)
		if !ok {
			return "Validation failed", []errs.FieldError{{Field: "", Error: err.Error()}}
		}
		for _, e := range customErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: e.Field,
				Error: e.Message,
			})
		}
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		var msg string

		switch e.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if e.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", e.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", e.Param())
			}

		case "max":
			if e.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", e.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", e.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", e.Param())

		case "email":
			msg = "must be a valid email address"

		case "uuid":
			msg = "must be a valid UUID"

		case "datetime":
			msg = "must be a valid RFC 3339 timestamp"

		case "hexcolor":
			msg = "must be a hex color like #3b82f6"

		default:
			if e.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, e.Tag(), e.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, e.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidUUID checks format only, not version or variant semantics.
func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(uuid)
}
