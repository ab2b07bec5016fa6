package errors

import (
	"strings"
	"unicode"
)

// Separator joins the parts of composite identifiers (source|label and
// source|label|target). It may not appear inside any single part.
const Separator = "|"

// maxPartLength bounds vertex ids and labels so that composite keys stay
// well under the key size limits of every supported store.
const maxPartLength = 256

// ValidateLabel validates an edge label.
//
// Validation rules:
//   - Label cannot be empty
//   - Maximum length of 256 characters
//   - No control characters
//   - No composite separator (|)
func ValidateLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidInput, "edge label cannot be empty")
	}
	return validatePart("edge label", label)
}

// ValidateVertexID validates a caller-supplied vertex id. The empty string
// is valid and means "let the store assign one".
func ValidateVertexID(id string) error {
	if id == "" {
		return nil
	}
	return validatePart("vertex id", id)
}

func validatePart(what, s string) error {
	if len(s) > maxPartLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", what, maxPartLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", what)
		}
	}
	if strings.Contains(s, Separator) {
		return New(ErrCodeInvalidInput, "%s cannot contain %q: %q", what, Separator, s)
	}
	return nil
}

// ValidatePropertyKey validates a property key for storage as a document
// field. reserved lists keys owned by the element's identity (for example
// "_id" on vertices, "id" on edge entries).
//
// Validation rules:
//   - Key cannot be empty
//   - Key cannot be one of the reserved identity fields
//   - No null bytes or control characters
//   - No dots (field path separator in document stores)
//   - No leading $ (operator prefix in document stores)
func ValidatePropertyKey(key string, reserved ...string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "property key cannot be empty")
	}
	for _, r := range reserved {
		if key == r {
			return New(ErrCodeInvalidInput, "property key %q is reserved", key)
		}
	}
	for _, r := range key {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "property key contains invalid characters")
		}
	}
	if strings.Contains(key, ".") {
		return New(ErrCodeInvalidInput, "property key cannot contain dots: %q", key)
	}
	if strings.HasPrefix(key, "$") {
		return New(ErrCodeInvalidInput, "property key cannot start with $: %q", key)
	}
	return nil
}
