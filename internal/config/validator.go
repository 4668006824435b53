package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers engine-specific validation rules. Must
// be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration validates that a field parses as a Go duration string
// (e.g. "5s", "300s", "1m"). Empty strings are accepted here; required-ness
// is enforced separately via SetDefaults filling the field beforehand.
func validateDuration(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.ParseDuration(value)
	return err == nil
}

// Validate validates the Config using struct tags and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateDurationFields(); err != nil {
		return err
	}

	if err := c.validateRedisBackend(); err != nil {
		return err
	}

	return nil
}

// validateDurationFields checks the timeout/expiry string fields parse as
// Go durations; struct tags alone cannot express this across the several
// differently-named fields cleanly, so it is re-checked here with field
// names in the error message.
func (c *Config) validateDurationFields() error {
	fields := map[string]string{
		"embedding.timeout": c.Embedding.Timeout,
		"classifier.timeout": c.Classifier.Timeout,
		"cache.expiry":       c.Cache.Expiry,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", name, value, err)
		}
	}
	return nil
}

// validateRedisBackend ensures a Redis host is configured when the redis
// cache backend is selected.
func (c *Config) validateRedisBackend() error {
	if c.Cache.Backend == "redis" && c.Cache.Redis.Host == "" {
		return errors.New("cache.redis.host is required when cache.backend is \"redis\"")
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname":
		return fmt.Sprintf("%s must be a valid hostname", field)
	case "ip4_addr":
		return fmt.Sprintf("%s must be a valid IPv4 address", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
