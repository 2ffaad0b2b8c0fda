package errors

import (
	"fmt"
	"testing"
)

func TestSiftError_Error(t *testing.T) {
	err := &SiftError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "question not found",
	}

	expected := "NOT_FOUND: question not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("text is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "text is required" {
		t.Errorf("Message = %q, want %q", err.Message, "text is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("question", "01ARZ3")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01ARZ3" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01ARZ3")
	}
	if err.Details["kind"] != "question" {
		t.Errorf("Details[kind] = %v, want %q", err.Details["kind"], "question")
	}
}

func TestNewUnavailable(t *testing.T) {
	err := NewUnavailable("embedding provider", fmt.Errorf("connection refused"))

	if err.Code != ErrUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
	if err.Details["provider"] != "embedding provider" {
		t.Errorf("Details[provider] = %v, want %q", err.Details["provider"], "embedding provider")
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk full"))

	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "disk full" {
		t.Errorf("Message = %q, want %q", err.Message, "disk full")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("item", "x"), ErrNotFound, true},
		{"different code", NewInvalidRequest("bad"), ErrNotFound, false},
		{"plain error", fmt.Errorf("plain"), ErrInternal, false},
		{"nil error", nil, ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
