// internal/app/system/search/search.go
package search

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
)

// LooksLikeEmail reports whether a free-text query is most likely an email
// fragment rather than a name.
func LooksLikeEmail(q string) bool {
	return strings.Contains(q, "@")
}

// Prefix matches documents whose folded field starts with the folded query.
// The field must hold text.Fold output (e.g. name_ci) so the regex can use
// its index.
func Prefix(foldedField, q string) bson.M {
	return bson.M{foldedField: bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(q))}}
}

// Contains matches documents whose field contains q, ignoring case.
func Contains(field, q string) bson.M {
	return bson.M{field: bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}}
}

// NameOrEmail builds the $or clauses used by people searches. Queries that
// look like an email only search the email field.
func NameOrEmail(foldedNameField, emailField, q string) []bson.M {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	if LooksLikeEmail(q) {
		return []bson.M{Contains(emailField, q)}
	}
	return []bson.M{Prefix(foldedNameField, q), Contains(emailField, q)}
}
