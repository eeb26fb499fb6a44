package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeSchemaMismatch, "record arity %d, want %d", 5, 7)

	if err.Code != ErrCodeSchemaMismatch {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSchemaMismatch)
	}

	if err.Message != "record arity 5, want 7" {
		t.Errorf("Message = %v, want %v", err.Message, "record arity 5, want 7")
	}

	expected := "SCHEMA_MISMATCH: record arity 5, want 7"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, cause, "failed to decode snapshot")

	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeUnsatisfiableImport, "test"),
			code:     ErrCodeUnsatisfiableImport,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodePartNotFound, "test"),
			code:     ErrCodeSchemaMismatch,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeSchemaMismatch, New(ErrCodeExcessiveNesting, "inner"), "outer"),
			code:     ErrCodeSchemaMismatch,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeGraphConstruction, "empty parts")); got != ErrCodeGraphConstruction {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeGraphConstruction)
	}

	if got := GetCode(errors.New("plain")); got != Code("") {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeUnresolvedReference, "type Foo not registered")); got != "type Foo not registered" {
		t.Errorf("UserMessage() = %q", got)
	}

	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
