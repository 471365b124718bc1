package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/crosslister/backend/internal/domain/listing"
)

// RegisterValidations installs the custom binding rules on gin's validator.
// Safe to call more than once.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	// "platform" accepts only marketplace codes with a known adapter type
	return v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return listing.Platform(fl.Field().String()).IsValid()
	})
}
