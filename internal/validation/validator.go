// Package validation validates service request structs using validator/v10.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/tagmark/tagmark-server/internal/errors"
)

// FieldErrors maps a JSON field name to a human-readable problem.
type FieldErrors map[string]string

// Failure is the Details payload of a validation error. Input echoes the
// submitted request so clients can re-display the form.
type Failure struct {
	Errors FieldErrors `json:"errors"`
	Input  any         `json:"input,omitempty"`
}

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain validation error.
func (v *Validator) Validate(s any) error {
	return v.validate(s, nil)
}

// ValidateInput is Validate with the submitted struct echoed back in the
// error details.
func (v *Validator) ValidateInput(s any) error {
	return v.validate(s, s)
}

func (v *Validator) validate(s, input any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return Fail(fields, input)
}

// Fail builds the validation error for field problems found outside struct
// tags, such as a reference to a missing record.
func Fail(fields FieldErrors, input any) error {
	return domainerrors.ValidationWithDetails("validation failed", Failure{Errors: fields, Input: input})
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
