package config

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// registerExclusive adds a custom validator ensuring two fields are mutually exclusive.
// The tag parameter names the other field.
func registerExclusive(validate *validator.Validate) error {
	if err := validate.RegisterValidation("exclusive", validateExclusive); err != nil {
		return fmt.Errorf("registering exclusive validation: %w", err)
	}

	return nil
}

// validateExclusive checks if two fields are mutually exclusive.
// Returns false if both fields carry a non-zero value.
func validateExclusive(fl validator.FieldLevel) bool {
	field := fl.Field()
	otherField := fl.Parent().FieldByName(fl.Param())

	if !field.IsValid() || !otherField.IsValid() {
		return true
	}

	return !(isSet(field) && isSet(otherField))
}

func isSet(v reflect.Value) bool {
	switch v.Kind() { //nolint:exhaustive
	case reflect.String:
		return v.String() != ""
	case reflect.Bool:
		return v.Bool()
	default:
		return !v.IsZero()
	}
}
