// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// Service errors.
var (
	ErrValidation     = errors.New("validation failed")
	ErrRecipeNotFound = errors.New("recipe not found")
)

// Field error messages returned to API clients.
const (
	msgRequired      = "This field is required."
	msgBlank         = "This field may not be blank."
	msgInvalidNumber = "A valid number is required."
	msgInvalidInt    = "A valid integer is required."
	msgMinPositive   = "Ensure this value is greater than or equal to 1."
	msgMinZero       = "Ensure this value is greater than or equal to 0."
	msgMaxMinutes    = "Ensure this value is less than or equal to 2147483647."
	msgNullChar      = "Null characters are not allowed."
	msgInvalidText   = "Enter valid UTF-8 text."
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// ValidationError carries per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// err returns e when any field failed, nil otherwise.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// fieldError builds a single-field ValidationError.
func fieldError(field, msg string) error {
	v := &ValidationError{}
	v.add(field, msg)
	return v
}

// cleanName trims a required name and checks its length.
// A nil name is reported as missing.
func cleanName(v *ValidationError, field string, raw *string, maxLen int) string {
	if raw == nil {
		v.add(field, msgRequired)
		return ""
	}
	name := strings.TrimSpace(*raw)
	switch {
	case name == "":
		v.add(field, msgBlank)
	default:
		checkText(v, field, name, maxLen)
	}
	return name
}

// checkText rejects values a TEXT column cannot store and values over maxLen runes.
func checkText(v *ValidationError, field, s string, maxLen int) {
	switch {
	case !utf8.ValidString(s):
		v.add(field, msgInvalidText)
	case strings.ContainsRune(s, 0):
		v.add(field, msgNullChar)
	case utf8.RuneCountInString(s) > maxLen:
		v.add(field, msgMaxLength(maxLen))
	}
}

func newID() string {
	return ulid.Make().String()
}
