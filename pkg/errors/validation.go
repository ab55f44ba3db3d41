package errors

import (
	"math"
	"unicode"
)

// MaxAttributeNameLength bounds metadata and GraphML attribute names.
const MaxAttributeNameLength = 256

// ValidateAttributeName validates a metadata key or imported attribute name.
// It rejects names that cannot round-trip through the JSON and GraphML
// adapters:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of MaxAttributeNameLength characters
//
// Reserved-prefix checks are done by package graph, which owns the prefix.
func ValidateAttributeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "attribute name cannot be empty")
	}

	if len(name) > MaxAttributeNameLength {
		return New(ErrCodeInvalidInput, "attribute name too long (max %d characters)", MaxAttributeNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "attribute name %q contains invalid control characters", name)
		}
	}

	return nil
}

// ValidateDimensions validates a layout rectangle size.
// Width and height must be finite and non-negative. Zero is allowed;
// degenerate rectangles are inflated by the layout transform helpers.
func ValidateDimensions(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidLayout, "dimension must be finite, got %v", v)
		}
		if v < 0 {
			return New(ErrCodeInvalidLayout, "dimension must not be negative, got %v", v)
		}
	}
	return nil
}
