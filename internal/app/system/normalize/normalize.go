// Package normalize canonicalizes user-entered values before they are
// compared or stored.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// NameCI returns the case- and diacritic-insensitive search key for a name.
func NameCI(s string) string {
	return text.Fold(Name(s))
}

// Role trims and lowercases a role tag.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Token trims a scanned QR token.
func Token(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
