package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "room not found",
			},
			expected: "NOT_FOUND: room not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection refused"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		appErr *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Room"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Reservation", "abc"), CodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("bad date"), CodeInvalidInput, http.StatusBadRequest},
		{"validation", Validation("invalid", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"unauthorized", Unauthorized("no identity"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not the owner"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("room taken"), CodeConflict, http.StatusConflict},
		{"timeout", Timeout("gave up"), CodeTimeout, http.StatusGatewayTimeout},
		{"internal", Internal("boom", errors.New("x")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.appErr.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.appErr.Code, tt.code)
			}
			if tt.appErr.StatusCode() != tt.status {
				t.Errorf("status = %d, want %d", tt.appErr.StatusCode(), tt.status)
			}
		})
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("already reserved")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError should return the same AppError unchanged")
	}

	plain := errors.New("plain")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected plain errors to convert to %s, got %s", CodeInternal, converted.Code)
	}
	if !errors.Is(converted, plain) {
		t.Errorf("converted error should wrap the original")
	}
}
