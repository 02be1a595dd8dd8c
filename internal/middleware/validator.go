package middleware

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

// SanitizeString removes null bytes and control characters other than tab,
// newline and carriage return. Surrounding whitespace is kept.
func SanitizeString(input string) string {
	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ValidateCode rejects blank sources and sources over maxBytes (0 = unlimited).
func ValidateCode(code string, maxBytes int) error {
	if strings.TrimSpace(code) == "" {
		return domain.ErrEmptyInput
	}
	if maxBytes > 0 && len(code) > maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", domain.ErrCodeTooLarge, len(code), maxBytes)
	}
	return nil
}

// ValidateRecordID checks that id is a UUID.
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ValidatePage clamps the page number to at least 1.
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
