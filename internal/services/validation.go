package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return validate
}

// ValidateStruct runs the struct's validate tags and reports failures per field.
func ValidateStruct(value any) error {
	err := structValidator.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	validationErr := NewValidationError()
	for _, fieldErr := range fieldErrors {
		validationErr.Add(fieldErr.Field(), validationMessage(fieldErr))
	}
	return validationErr
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required", "required_if":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if fieldErr.Kind() == reflect.Slice {
			return "select at least " + fieldErr.Param()
		}
		return "must be at least " + fieldErr.Param() + " characters"
	case "max":
		return "must be at most " + fieldErr.Param() + " characters"
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	case "datetime":
		return "use the format YYYY-MM-DD"
	case "e164", "phone":
		return "enter a valid phone number"
	default:
		return "invalid value"
	}
}
