package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents an error response from the auth service.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`

	// Message is the server's error message, e.g. "Invalid data".
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("auth service returned %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether the error is a 429 from the service.
func IsRateLimited(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsNotAuthenticated reports whether the error is a 401 from the service,
// meaning the session or reset cookie is missing, expired or revoked.
func IsNotAuthenticated(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

// parseErrorResponse builds an APIError from a non-success response body.
func parseErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}
