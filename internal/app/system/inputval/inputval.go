// Package inputval decodes and validates request input at the HTTP boundary.
//
// Bodies decode into typed structs with unknown fields rejected, so a
// misspelled or extra field is an InvalidArgument instead of being ignored.
package inputval

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst. Unknown fields, trailing
// data, an empty body and malformed JSON are all InvalidArgument.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Invalid("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperr.Invalid("field %q has the wrong type", typeErr.Field)
		}
		if strings.HasPrefix(err.Error(), "json: unknown field ") {
			return apperr.Invalid("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		}
		return apperr.Invalid("malformed JSON body")
	}
	if dec.More() {
		return apperr.Invalid("request body must contain a single JSON object")
	}
	return nil
}

// ObjectID parses a required hex ObjectID named field.
func ObjectID(field, hex string) (primitive.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return primitive.NilObjectID, apperr.Invalid("%s is required", field)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid("%s is not a valid id", field)
	}
	return id, nil
}

// OptionalObjectID parses hex if non-empty; empty yields nil.
func OptionalObjectID(field, hex string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(hex) == "" {
		return nil, nil
	}
	id, err := ObjectID(field, hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ObjectIDs parses a list of hex ids. The first bad entry is reported.
func ObjectIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for i, h := range hexes {
		id, err := ObjectID(fmt.Sprintf("%s[%d]", field, i), h)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// IsValidObjectID reports whether s is a 24-char hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// IsValidEmail reports whether s is a bare addr-spec (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(s, "@")
}

// Required returns an InvalidArgument naming the first empty field.
// Pairs are (name, value).
func Required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperr.Invalid("%s is required", pairs[i])
		}
	}
	return nil
}
