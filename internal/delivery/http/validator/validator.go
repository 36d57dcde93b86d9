// Package validator wires go-playground/validator into echo's binding pipeline.
package validator

import (
	domainerrors "casthub/internal/domain/errors"

	validatorlib "github.com/go-playground/validator/v10"
)

// Validator implements echo.Validator on top of go-playground/validator.
type Validator struct {
	validate *validatorlib.Validate
}

// New is the constructor for Validator.
func New() *Validator {
	return &Validator{validate: validatorlib.New()}
}

// Validate checks struct tags and converts failures into the application's
// error envelope so the error handler renders them as 400s.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
