// Package htmlsanitize strips markup from user-supplied free text.
//
// Case descriptions, donation notes and donor names are shown by the browser
// client, so they are stored as plain text with every tag removed.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes all HTML elements from s and trims the result.
// Entities are decoded afterwards so "Food & water" survives unchanged.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no HTML elements.
func IsPlainText(s string) bool {
	return PlainText(s) == strings.TrimSpace(s)
}
