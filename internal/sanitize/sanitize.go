// Package sanitize strips markup from user supplied text
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer removes every HTML element from input while keeping its text.
// Output is plain text; templates escape it again on render.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer creates a sanitizer backed by the strict bluemonday policy
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns s without markup, entities decoded and surrounding space trimmed
func (s *TextSanitizer) Sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
