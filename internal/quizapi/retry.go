package quizapi

import (
	"context"
	"errors"
	"net/http"
)

// Retryable reports whether a failed call may succeed if repeated:
// transport failures, timeouts, 408, 429 and 5xx responses.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	return true
}
