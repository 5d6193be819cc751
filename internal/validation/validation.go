// Package validation provides input validation middleware for the Helios API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (4MB). Statement uploads
// carry full transaction lists, so the cap is larger than a typical JSON
// API would use.
const MaxRequestSize = 4 << 20

// MaxStringLength is the maximum length for string fields
const MaxStringLength = 10000

var (
	// taxIDRegex validates US EINs (NN-NNNNNNN, dash optional)
	taxIDRegex = regexp.MustCompile(`^\d{2}-?\d{7}$`)
	// stateRegex validates two-letter US state/territory codes
	stateRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidTaxID checks if a string is a valid US EIN
func IsValidTaxID(s string) bool {
	return taxIDRegex.MatchString(s)
}

// IsValidState checks if a string is a two-letter state code
func IsValidState(s string) bool {
	return stateRegex.MatchString(s)
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// ValidTaxID checks if a field is a valid US EIN
func ValidTaxID(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidTaxID(value) {
			return &ValidationError{Field: field, Message: "must be a valid EIN (NN-NNNNNNN)"}
		}
		return nil
	}
}

// ValidState checks if a field is a two-letter state code
func ValidState(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil
		}
		if !IsValidState(value) {
			return &ValidationError{Field: field, Message: "must be a two-letter state code"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}
