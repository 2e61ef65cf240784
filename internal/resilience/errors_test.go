package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped", fmt.Errorf("call: %w", NewTransientError(errors.New("limited"), 429)), true},
		{"plain", errors.New("invalid input"), false},
		{"reset", fmt.Errorf("write: %w", syscall.ECONNRESET), true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"message", errors.New("read tcp: i/o timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestCheckStatus(t *testing.T) {
	require.NoError(t, CheckStatus(&http.Response{StatusCode: 200}, "overpass"))

	err := CheckStatus(&http.Response{StatusCode: 503}, "overpass")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "overpass returned status 503")

	err = CheckStatus(&http.Response{StatusCode: 400}, "overpass")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}
