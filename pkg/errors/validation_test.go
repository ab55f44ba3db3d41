package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateAttributeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Weight", false},
		{"spaces", "Edge Width", false},
		{"unicode", "Größe", false},
		{"empty", "", true},
		{"control", "bad\x07name", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("a", MaxAttributeNameLength+1), true},
		{"max length", strings.Repeat("a", MaxAttributeNameLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttributeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAttributeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT code, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		w, h    float64
		wantErr bool
	}{
		{800, 600, false},
		{0, 0, false},
		{-1, 10, true},
		{10, math.NaN(), true},
		{math.Inf(1), 10, true},
	}

	for _, tt := range tests {
		err := ValidateDimensions(tt.w, tt.h)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDimensions(%v, %v) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
		}
	}
}
