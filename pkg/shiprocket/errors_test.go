package shiprocket_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipbridge/pkg/shiprocket"
)

func TestAPIError_Error(t *testing.T) {
	err := &shiprocket.APIError{
		Kind:       shiprocket.KindTransport,
		Message:    "API Error: 422 Unprocessable Entity",
		StatusCode: 422,
		StatusText: "Unprocessable Entity",
	}

	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "transport")

	netErr := &shiprocket.APIError{
		Kind:       shiprocket.KindNetwork,
		Message:    "connection refused",
		StatusText: "Network Error",
	}
	assert.Contains(t, netErr.Error(), "network")
	assert.NotContains(t, netErr.Error(), "(0")
}

func TestAPIError_HTTPStatus(t *testing.T) {
	cases := []struct {
		err  *shiprocket.APIError
		want int
	}{
		{&shiprocket.APIError{Kind: shiprocket.KindValidation}, http.StatusBadRequest},
		{&shiprocket.APIError{Kind: shiprocket.KindConfiguration}, http.StatusBadRequest},
		{&shiprocket.APIError{Kind: shiprocket.KindAuthentication, StatusCode: 401}, http.StatusUnauthorized},
		{&shiprocket.APIError{Kind: shiprocket.KindNetwork}, http.StatusBadGateway},
		{&shiprocket.APIError{Kind: shiprocket.KindTransport, StatusCode: 503}, http.StatusServiceUnavailable},
		{&shiprocket.APIError{Kind: shiprocket.KindTransport}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.HTTPStatus(), "kind %s", tc.err.Kind)
	}
}

func TestAPIError_SentinelMatching(t *testing.T) {
	err := &shiprocket.APIError{Kind: shiprocket.KindValidation, Message: "Missing required fields: weight"}

	assert.True(t, errors.Is(err, shiprocket.ErrValidation))
	assert.False(t, errors.Is(err, shiprocket.ErrTransport))
}

func TestAPIError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &shiprocket.APIError{Kind: shiprocket.KindNetwork, Message: cause.Error(), Cause: cause}

	assert.True(t, errors.Is(err, cause))
}

func TestAsAPIError_ForeignErrorBecomesNetwork(t *testing.T) {
	apiErr := shiprocket.AsAPIError(errors.New("boom"))

	require.NotNil(t, apiErr)
	assert.Equal(t, shiprocket.KindNetwork, apiErr.Kind)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Equal(t, "Network Error", apiErr.StatusText)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestAsAPIError_PassesThrough(t *testing.T) {
	orig := &shiprocket.APIError{Kind: shiprocket.KindTransport, StatusCode: 404}

	assert.Same(t, orig, shiprocket.AsAPIError(orig))
}
