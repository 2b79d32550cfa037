package showads

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the ShowAds API, observed after
// the HTTP layer already exhausted its transport-level retries.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Body)
}

// Retriable reports whether the status belongs to the transient failure
// class (rate limiting or server errors). For a returned APIError the
// retry budget is already spent, so even a retriable status is final
// for the batch that hit it.
func (e *APIError) Retriable() bool {
	switch e.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// AuthError means the connector could not establish or keep a valid
// session: the auth endpoint failed, or the API kept rejecting a token
// that was refreshed right before the retry.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }
