package authsdk

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("server message", func(t *testing.T) {
		t.Parallel()
		err := parseErrorResponse(http.StatusBadRequest, []byte(`{"error": "Invalid data"}`))

		apiErr := &APIError{}
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, "Invalid data", apiErr.Message)
	})

	t.Run("non JSON body falls back to status text", func(t *testing.T) {
		t.Parallel()
		err := parseErrorResponse(http.StatusBadGateway, []byte("upstream exploded"))

		apiErr := &APIError{}
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Bad Gateway", apiErr.Message)
	})

	t.Run("classifiers", func(t *testing.T) {
		t.Parallel()
		require.True(t, IsRateLimited(&APIError{StatusCode: http.StatusTooManyRequests}))
		require.True(t, IsNotAuthenticated(&APIError{StatusCode: http.StatusUnauthorized}))
		require.False(t, IsRateLimited(&APIError{StatusCode: http.StatusBadRequest}))
	})
}
