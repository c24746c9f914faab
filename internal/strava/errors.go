package strava

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// APIError is a non-2xx response from the Strava API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is an authentication failure (expired or
// revoked token, missing scope, failed refresh). These are fatal: retrying
// cannot succeed until the user re-authorizes.
func IsAuthError(err error) bool {
	// Token refreshes fail inside the oauth2 transport, before any API
	// status code exists.
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return true
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 (deleted or inaccessible activity)
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a 429 quota rejection
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
