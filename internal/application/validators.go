package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-switchboard/internal/topology"
)

// RegisterExperimentValidators registers custom validation functions with
// the validator instance for use in experiment and registry configuration
// validation.
// RegisterExperimentValidators adds snakecase and topologykind validators
// that can be referenced in struct tags for automated validation.
// RegisterExperimentValidators returns an error if any validator
// registration fails.
func RegisterExperimentValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("snakecase", validateSnakeCase); err != nil {
		return fmt.Errorf("failed to register snakecase validator: %w", err)
	}

	if err := v.RegisterValidation("topologykind", validateTopologyKind); err != nil {
		return fmt.Errorf("failed to register topologykind validator: %w", err)
	}

	return nil
}

// validateSnakeCase validates that a string is a lowercase snake_case
// identifier: ASCII letters and digits separated by single underscores,
// with no leading or trailing underscore. Identifiers in this form compose
// safely into node IDs like finance_banking.
func validateSnakeCase(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}

	prev := '_'
	for _, ch := range value {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '_':
			if prev == '_' {
				return false
			}
		default:
			return false
		}
		prev = ch
	}
	return prev != '_'
}

// validateTopologyKind validates that a string names a known topology kind.
func validateTopologyKind(fl validator.FieldLevel) bool {
	_, err := topology.ParseKind(fl.Field().String())
	return err == nil
}
