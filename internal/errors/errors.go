// Package errors provides shared error types for the IGDB client and tools.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxBodyLength caps how much of an upstream response body is kept in an error message.
const MaxBodyLength = 500

// ConfigurationError indicates required configuration is missing or invalid.
type ConfigurationError struct {
	Missing []string // environment variables that were not set
	Message string   // optional extra detail
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

// NewConfigurationError creates a ConfigurationError naming the missing variables.
func NewConfigurationError(missing ...string) *ConfigurationError {
	return &ConfigurationError{Missing: missing}
}

// AuthenticationError indicates the identity provider rejected a token request.
type AuthenticationError struct {
	StatusCode int
	Body       string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: identity provider returned %d: %s", e.StatusCode, e.Body)
}

// NewAuthenticationError creates an AuthenticationError, truncating the body.
func NewAuthenticationError(status int, body []byte) *AuthenticationError {
	return &AuthenticationError{
		StatusCode: status,
		Body:       Truncate(strings.TrimSpace(string(body)), MaxBodyLength),
	}
}

// APIError indicates the data service rejected or failed a request.
type APIError struct {
	Endpoint   string // e.g. "games"
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("IGDB API error on %s: %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("IGDB API error: %d: %s", e.StatusCode, e.Body)
}

// NewAPIError creates an APIError, truncating the body.
func NewAPIError(endpoint string, status int, body []byte) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: status,
		Body:       Truncate(strings.TrimSpace(string(body)), MaxBodyLength),
	}
}

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty for sensitive data)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DeserializationError indicates a response did not match the expected shape.
type DeserializationError struct {
	Index int    // record index within the response array, -1 for the whole payload
	Field string // offending field, if known
	Err   error
}

func (e *DeserializationError) Error() string {
	var b strings.Builder
	b.WriteString("failed to decode response")
	if e.Index >= 0 {
		fmt.Fprintf(&b, " record %d", e.Index)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// IsConfiguration returns true if the error is a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsAuthentication returns true if the error is an AuthenticationError.
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsAPI returns true if the error is an APIError.
func IsAPI(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsValidation returns true if the error is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsDeserialization returns true if the error is a DeserializationError.
func IsDeserialization(err error) bool {
	var target *DeserializationError
	return errors.As(err, &target)
}

// Truncate shortens s to at most maxLen bytes, adding "..." if truncated.
// The cut backs off to a rune boundary so the result stays valid UTF-8.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
