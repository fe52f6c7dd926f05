package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError names the env variable that failed a check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:")
	for _, err := range e {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Validator is satisfied by the Validate method value of each config group.
type Validator func() ValidationErrors

// Validate runs every group and reports all failures at once.
func Validate(validators ...Validator) error {
	var all ValidationErrors
	for _, v := range validators {
		all = append(all, v()...)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// CollectErrors drops the nil results of the Require helpers.
func CollectErrors(errs ...*ValidationError) ValidationErrors {
	var result ValidationErrors
	for _, err := range errs {
		if err != nil {
			result = append(result, *err)
		}
	}
	return result
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func RequireNonEmpty(field, value string) *ValidationError {
	if value == "" {
		return invalid(field, "is required")
	}
	return nil
}

func RequireMaxLength(field, value string, maxLength int) *ValidationError {
	if len(value) > maxLength {
		return invalid(field, "must be at most %d characters, got %d", maxLength, len(value))
	}
	return nil
}

func RequirePositiveDuration(field string, value time.Duration) *ValidationError {
	if value <= 0 {
		return invalid(field, "must be positive, got %v", value)
	}
	return nil
}

func RequireInRange(field string, value, lo, hi int) *ValidationError {
	if value < lo || value > hi {
		return invalid(field, "must be between %d and %d, got %d", lo, hi, value)
	}
	return nil
}

func RequireValidPort(field string, value uint16) *ValidationError {
	if value == 0 {
		return invalid(field, "port must be between 1 and 65535")
	}
	return nil
}

func RequireOneOf(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "must be one of %v, got %q", allowed, value)
}

// RequireValidURL accepts absolute URLs only.
func RequireValidURL(field, value string) *ValidationError {
	if value == "" {
		return invalid(field, "is required")
	}
	u, err := url.Parse(value)
	if err != nil {
		return invalid(field, "invalid URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return invalid(field, "must be an absolute URL like https://app.example.com")
	}
	return nil
}
