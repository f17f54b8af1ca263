package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/example/agrobazaar/internal/apperrors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors use the json
// tag so messages match what clients send.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs struct validation and converts failures into a
// Validation AppError naming every offending field.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation("Invalid input data", err)
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		name := fieldPath(fe.Namespace())
		if fe.Tag() == "required" {
			missing = append(missing, name)
			continue
		}
		invalid = append(invalid, describe(name, fe))
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Please provide all required fields: "+strings.Join(missing, ", ")+".")
	}
	parts = append(parts, invalid...)
	return apperrors.Validation(strings.Join(parts, " "), err)
}

// fieldPath drops the root struct name from a validator namespace, so
// "sellerInput.storeDetails.storeName" becomes "storeDetails.storeName".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return field + " must be one of: " + fe.Param() + "."
	case "email":
		return field + " must be a valid email address."
	case "url":
		return field + " must be a valid URL."
	case "gt":
		return field + " must be greater than " + fe.Param() + "."
	case "gte", "min":
		return field + " must be at least " + fe.Param() + "."
	case "lte", "max":
		return field + " must be at most " + fe.Param() + "."
	case "numeric":
		return field + " must contain only digits."
	case "len":
		return field + " must be " + fe.Param() + " characters long."
	}
	return field + " is invalid."
}
