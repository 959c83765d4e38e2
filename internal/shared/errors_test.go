package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAuthError(t *testing.T) {
	t.Run("matches sentinel and cause", func(t *testing.T) {
		err := NewAuthError("refresh", ErrNoRefreshToken)

		if !errors.Is(err, ErrAuthFailed) {
			t.Error("expected AuthError to match ErrAuthFailed")
		}
		if !errors.Is(err, ErrNoRefreshToken) {
			t.Error("expected AuthError to match its cause")
		}
		if err.Error() != "auth refresh: missing refresh token" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("ensure valid: %w", NewAuthError("refresh", ErrReauthRequired))

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatal("expected errors.As to find AuthError")
		}
		if authErr.Op != "refresh" {
			t.Errorf("expected op refresh, got %s", authErr.Op)
		}
		if !errors.Is(err, ErrReauthRequired) {
			t.Error("expected wrapped error to match ErrReauthRequired")
		}
	})

	t.Run("nil cause", func(t *testing.T) {
		err := NewAuthError("exchange", nil)
		if !errors.Is(err, ErrAuthFailed) {
			t.Error("expected ErrAuthFailed")
		}
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{Method: http.MethodGet, Endpoint: "/me", StatusCode: http.StatusUnauthorized}

	if !errors.Is(err, ErrAPIRequest) {
		t.Error("expected APIError to match ErrAPIRequest")
	}
	if !IsStatus(fmt.Errorf("wrapped: %w", err), http.StatusUnauthorized) {
		t.Error("expected IsStatus to see through wrapping")
	}
	if IsStatus(err, http.StatusNotFound) {
		t.Error("expected IsStatus to compare status codes")
	}
	if IsStatus(errors.New("plain"), http.StatusUnauthorized) {
		t.Error("expected IsStatus to be false for non API errors")
	}
}
