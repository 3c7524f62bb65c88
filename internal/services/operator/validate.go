package operator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError is a field-level request validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors holds every failed field of a request.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		messages[i] = e.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// ValidateRequest checks a request struct against its validate tags.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationErrors{}
	for _, e := range fieldErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: formatValidationMessage(e),
		})
	}
	return out
}

func formatValidationMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must not be empty", field)
		}
		return fmt.Sprintf("%s is required", field)
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}
