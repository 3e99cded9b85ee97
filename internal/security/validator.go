package security

import (
	"fmt"
	"regexp"
)

// maxIdentifierLength bounds tokens and conversation ids.
const maxIdentifierLength = 128

// IdentifierValidator checks the identifiers that feed thread-key
// derivation. Thread keys join the user token and conversation id, so both
// are held to a narrow charset that stays safe as a storage key.
type IdentifierValidator struct {
	pattern *regexp.Regexp
}

// NewIdentifierValidator creates a new identifier validator.
func NewIdentifierValidator() *IdentifierValidator {
	return &IdentifierValidator{
		pattern: regexp.MustCompile(`^[A-Za-z0-9_-]+$`),
	}
}

// ValidationError reports a rejected identifier.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks one identifier value.
func (v *IdentifierValidator) Validate(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if len(value) > maxIdentifierLength {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("longer than %d characters", maxIdentifierLength)}
	}
	if !v.pattern.MatchString(value) {
		return &ValidationError{Field: field, Reason: "may only contain letters, digits, '-' and '_'"}
	}
	return nil
}
