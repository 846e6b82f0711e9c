package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps go-playground/validator for use from handlers.
type CustomValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce sync.Once
	validatorInst *CustomValidator
)

// GetValidator returns the shared validator instance.
func GetValidator() *CustomValidator {
	validatorOnce.Do(func() {
		validatorInst = &CustomValidator{validate: validator.New()}
	})
	return validatorInst
}

// Validate runs struct validation against the request's validate tags.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}
