// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/exploreiib/pharma-net/internal/utils"
)

// Error kinds raised by contract operations. Every returned error wraps exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authorization failed")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func unauthorized(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// validate runs struct tag validation and reports the first failing field.
func validate(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		if details := utils.GetValidationErrors(err); len(details) > 0 {
			return invalid("%s", details[0].Message)
		}
		return invalid("%v", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
