package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("pow2", isPowerOfTwo); err != nil {
		panic(err)
	}
}

// isPowerOfTwo accepts unsigned fields that are a power of two.
func isPowerOfTwo(fl validator.FieldLevel) bool {
	v := fl.Field().Uint()
	return v != 0 && v&(v-1) == 0
}

// Validate checks every field and reports all violations at once.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}
	var msgs []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		for _, e := range verrs {
			msgs = append(msgs, describe(e))
		}
	}
	// An enabled endpoint needs an address; omitempty skips the tag rules.
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		msgs = append(msgs, "Metrics.Addr: field is required")
	}
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Problems: msgs}
}

// describe converts a validator error into a readable message.
func describe(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required", field)
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s: must not exceed %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s: %v must be one of [%s]", field, e.Value(), e.Param())
	case "pow2":
		return fmt.Sprintf("%s: %v is not a power of two", field, e.Value())
	case "hostname_port":
		return fmt.Sprintf("%s: %q is not a host:port address", field, e.Value())
	default:
		return fmt.Sprintf("%s: validation failed (%s)", field, e.Tag())
	}
}

// ValidationError lists every invalid setting.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%v: %s", ErrInvalidConfig, e.Problems[0])
	}
	return fmt.Sprintf("%v: %d problems: %s", ErrInvalidConfig, len(e.Problems), strings.Join(e.Problems, "; "))
}

// Unwrap returns ErrInvalidConfig for error chain support.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}
