// Package handler is the HTTP layer: it binds and validates requests,
// calls the service layer, and shapes responses.
package handler

import "github.com/go-playground/validator/v10"

// validate is the shared validator instance behind every payload's
// Validate method.
var validate = validator.New()
