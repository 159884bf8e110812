package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	orig := baseBackoff
	baseBackoff = time.Millisecond
	t.Cleanup(func() { baseBackoff = orig })
}

func TestIsAuthError(t *testing.T) {
	if IsAuthError(nil) {
		t.Error("nil should not be auth error")
	}
	if IsAuthError(&rateLimitError{}) {
		t.Error("rateLimitError should not be auth error")
	}
	if !IsAuthError(&authError{message: "test"}) {
		t.Error("authError should be auth error")
	}
	if !IsAuthError(fmt.Errorf("provider review: %w", &authError{message: "test"})) {
		t.Error("wrapped authError should be auth error")
	}
}

func TestIsRetryable(t *testing.T) {
	if isRetryable(&authError{message: "test"}) {
		t.Error("authError should not be retryable")
	}
	if !isRetryable(&rateLimitError{}) {
		t.Error("rateLimitError should be retryable")
	}
	if !isRetryable(&serverError{statusCode: 500}) {
		t.Error("serverError should be retryable")
	}
	if isRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
}

func TestErrorMessages(t *testing.T) {
	rl := &rateLimitError{}
	if rl.Error() != "rate limited" {
		t.Errorf("rateLimitError.Error() = %q", rl.Error())
	}

	se := &serverError{statusCode: 500, body: "oops"}
	if se.Error() != "server error: oops" {
		t.Errorf("serverError.Error() = %q", se.Error())
	}

	ae := &authError{message: "bad key"}
	if ae.Error() != "authentication error: bad key" {
		t.Errorf("authError.Error() = %q", ae.Error())
	}
}

func TestFromStatus(t *testing.T) {
	base := errors.New("boom")
	if !IsAuthError(fromStatus(http.StatusUnauthorized, base)) {
		t.Error("401 should map to auth error")
	}
	if !IsAuthError(fromStatus(http.StatusForbidden, base)) {
		t.Error("403 should map to auth error")
	}
	var rl *rateLimitError
	if !errors.As(fromStatus(http.StatusTooManyRequests, base), &rl) {
		t.Error("429 should map to rate limit error")
	}
	var se *serverError
	if !errors.As(fromStatus(http.StatusBadGateway, base), &se) || se.statusCode != http.StatusBadGateway {
		t.Error("502 should map to server error")
	}
	if fromStatus(http.StatusBadRequest, base) != base {
		t.Error("400 should pass the error through")
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryWithBackoff(ctx, 3, func() error {
		return &rateLimitError{}
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		attempts++
		return &authError{message: "bad"}
	})
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for auth error, got %d", attempts)
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestRetryWithBackoff_RetriesThenSucceeds(t *testing.T) {
	fastBackoff(t)
	attempts := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		attempts++
		if attempts < 3 {
			return &serverError{statusCode: 503, body: "unavailable"}
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected nil error, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	fastBackoff(t)
	attempts := 0
	err := retryWithBackoff(context.Background(), 2, func() error {
		attempts++
		return &rateLimitError{retryable: true}
	})
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	var rl *rateLimitError
	if !errors.As(err, &rl) {
		t.Errorf("Expected rate limit error, got: %v", err)
	}
}
