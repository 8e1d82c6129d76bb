package common

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// sharedValidator checks both commands and configuration.
// Custom rules are registered from package init functions only.
var sharedValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "stage_code", validStageCode)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// validStageCode accepts the canonical stage codes
func validStageCode(fl validator.FieldLevel) bool {
	return stage.Code(fl.Field().String()).IsCanonical()
}

// Validator returns the validator shared by commands and configuration
func Validator() *validator.Validate {
	return sharedValidator
}

// RegisterValidation adds a rule to the shared validator. Call it from init.
func RegisterValidation(tag string, fn validator.Func) {
	mustRegister(sharedValidator, tag, fn)
}

// ErrInvalidRequest is returned when a command fails its validate tags
type ErrInvalidRequest struct {
	Problems []string
}

func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Problems, "; "))
}

// ValidateRequest checks a command's validate tags and flattens the field errors
func ValidateRequest(request interface{}) error {
	err := sharedValidator.Struct(request)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return &ErrInvalidRequest{Problems: msgs}
}
