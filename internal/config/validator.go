package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Validator validates configuration values.
type Validator interface {
	Validate(cfg *Config) error
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a Validator backed by struct tag validation plus the
// cross-field rules tags cannot express.
func NewValidator() Validator {
	return &validatorImpl{validate: validator.New()}
}

func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}
		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - "+strings.Join(messages, "\n  - "))
	}

	var problems []string
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		problems = append(problems, "tracing.endpoint is required when tracing is enabled")
	}
	if len(problems) > 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - "+strings.Join(problems, "\n  - "))
	}
	return nil
}

// formatValidationError renders a single tag failure with its yaml-ish field
// path, e.g. "graph.uri failed validation: required".
func formatValidationError(e validator.FieldError) string {
	path := formatFieldPath(e.Namespace())
	if e.Param() != "" {
		return fmt.Sprintf("%s failed validation: %s=%s (got: %v)", path, e.Tag(), e.Param(), e.Value())
	}
	return fmt.Sprintf("%s failed validation: %s", path, e.Tag())
}

func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:] // drop the root struct name
	}
	for i, part := range parts {
		parts[i] = toSnakeCase(part)
	}
	return strings.Join(parts, ".")
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
