package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Unsupported drug",
			code:      ErrCodeUnsupportedDrug,
			message:   "Unsupported drug",
			details:   "ASPIRIN has no drug rule",
			requestID: "req-123",
		},
		{
			name:      "No variants",
			code:      ErrCodeNoUsableVariants,
			message:   "No usable variants",
			details:   "All data lines were malformed",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}

			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}

			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}

			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}

			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "String validation error",
			field:   "vcf_file",
			message: "Only .vcf files are supported",
			value:   "sample.txt",
		},
		{
			name:    "Integer validation error",
			field:   "size",
			message: "File is empty",
			value:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}

			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}

			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestUnsupportedDrugError(t *testing.T) {
	err := &UnsupportedDrugError{Drug: "ASPIRIN", Supported: []string{"CODEINE", "WARFARIN"}}

	if !errors.Is(err, ErrUnsupportedDrug) {
		t.Error("UnsupportedDrugError should match ErrUnsupportedDrug")
	}

	wrapped := fmt.Errorf("building profile: %w", err)
	if !errors.Is(wrapped, ErrUnsupportedDrug) {
		t.Error("wrapped UnsupportedDrugError should match ErrUnsupportedDrug")
	}

	expected := "unsupported drug: ASPIRIN (supported drugs: CODEINE, WARFARIN)"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	bare := &UnsupportedDrugError{Drug: "ASPIRIN"}
	if bare.Error() != "unsupported drug: ASPIRIN" {
		t.Errorf("Unexpected message %q", bare.Error())
	}
}

func TestErrorCodeFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		client bool
	}{
		{"nil", nil, "", false},
		{"unsupported drug", &UnsupportedDrugError{Drug: "ASPIRIN"}, ErrCodeUnsupportedDrug, true},
		{"no variants", fmt.Errorf("analyzing: %w", ErrNoUsableVariants), ErrCodeNoUsableVariants, true},
		{"validation", NewValidationError("drugs", "at least one drug is required", nil), ErrCodeValidation, true},
		{"internal", errors.New("boom"), ErrCodeInternalServer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCodeFor(tt.err); got != tt.code {
				t.Errorf("Expected code %q, got %q", tt.code, got)
			}
			if got := IsClientError(tt.err); got != tt.client {
				t.Errorf("Expected client error %v, got %v", tt.client, got)
			}
		})
	}
}
