package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validate is a shared validator instance
var Validate = validator.New()

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateModelProvider validates a ModelProvider string value
func ValidateModelProvider(value string) error {
	if !models.ModelProvider(value).Valid() {
		return fmt.Errorf("invalid provider: %s (must be 'openai' or 'anthropic')", value)
	}
	return nil
}
