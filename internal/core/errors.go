package core

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error matches exactly one of them with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrDerivation      = errors.New("derivation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// classError is a sentinel that also matches its class.
type classError struct {
	msg   string
	class error
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Is(target error) bool { return target == e.class }

func validation(msg string) error { return &classError{msg: msg, class: ErrValidation} }

func derivation(msg string) error { return &classError{msg: msg, class: ErrDerivation} }

var (
	ErrInvalidAmount     = validation("invalid amount")
	ErrNegativeAmount    = validation("amount cannot be negative")
	ErrEmptyDescription  = validation("empty description")
	ErrDescriptionLength = validation("description too long (max 200 characters)")
	ErrEmptyName         = validation("empty name")
	ErrInvalidDate       = validation("invalid date")
	ErrMissingCategory   = validation("missing category")
	ErrUnknownCategory   = validation("unknown category")
	ErrUnknownCard       = validation("unknown credit card")
	ErrInvalidColor      = validation("invalid color")
	ErrInvalidKind       = validation("invalid category kind")
	ErrInvalidType       = validation("invalid investment type")
	ErrInvalidEmail      = validation("invalid email")
	ErrWeakPassword      = validation("password too short (min 8 characters)")
	ErrPasswordTooLong   = validation("password too long (max 72 bytes)")
	ErrInvalidMonth      = validation("invalid month")

	ErrInvalidDay          = derivation("invalid day of month")
	ErrInvalidInstallments = derivation("invalid installment count")
	ErrInvalidDateRange    = derivation("end date before start date")
)

// FieldError reports which input field failed. It unwraps to the cause.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

// Invalid wraps err with the name of the offending field.
func Invalid(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
