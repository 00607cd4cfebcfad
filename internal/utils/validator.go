// internal/utils/validator.go
package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("keypart", validateKeyPart)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateKeyPart accepts strings usable as a composite key attribute.
func validateKeyPart(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if !utf8.ValidString(value) {
		return false
	}
	return !strings.ContainsRune(value, 0) && !strings.ContainsRune(value, utf8.MaxRune)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		if e.Kind().String() == "int" {
			return e.Field() + " must be at least " + e.Param()
		}
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "keypart":
		return e.Field() + " must be valid UTF-8 without U+0000 or U+10FFFF"
	default:
		return e.Field() + " is invalid"
	}
}
