// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
	"unicode"
)

// Username trims and lowercases a login name so lookups are case-insensitive.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps digits and a single leading "+"; separators are dropped.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
