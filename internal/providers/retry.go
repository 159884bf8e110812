package providers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// baseBackoff is the first retry delay; it doubles on every attempt.
var baseBackoff = time.Second

type rateLimitError struct {
	retryable bool
}

func (e *rateLimitError) Error() string { return "rate limited" }

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string { return "server error: " + e.body }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError checks if an error is or wraps an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

func isRetryable(err error) bool {
	var rl *rateLimitError
	var se *serverError
	return errors.As(err, &rl) || errors.As(err, &se)
}

// fromStatus maps an HTTP status reported by an SDK to the package's typed
// errors. It returns err unchanged for statuses that need no special
// handling.
func fromStatus(status int, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &authError{message: err.Error()}
	case status == http.StatusTooManyRequests:
		return &rateLimitError{retryable: true}
	case status >= 500:
		return &serverError{statusCode: status, body: err.Error()}
	default:
		return err
	}
}

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := baseBackoff << uint(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
