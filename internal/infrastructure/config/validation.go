package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
)

// databaseTypes are the drivers database.NewConnection can open
var databaseTypes = map[string]bool{
	"postgres":    true,
	"sqlite":      true,
	"sqlite-pure": true,
}

func init() {
	common.RegisterValidation("database_type", func(fl validator.FieldLevel) bool {
		return databaseTypes[fl.Field().String()]
	})
}

// ValidateConfig validates the entire configuration
func ValidateConfig(cfg *Config) error {
	if err := common.Validator().Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}
