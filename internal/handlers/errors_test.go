package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: user %q", services.ErrNotFound, "bob"), http.StatusNotFound},
		{services.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("%w: cannot target yourself", services.ErrInvalidArgument), http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrInconsistent, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var httpErr *echo.HTTPError
		require.True(t, errors.As(httpError(tt.err), &httpErr))
		assert.Equal(t, tt.code, httpErr.Code, tt.err.Error())
	}

	var opaque *echo.HTTPError
	require.True(t, errors.As(httpError(errors.New("pq: password authentication failed")), &opaque))
	assert.Equal(t, "Internal Server Error", opaque.Message)
}
