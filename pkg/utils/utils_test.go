package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"domain error", idmerrors.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "user not found"},
		{"wrapped domain error", fmt.Errorf("login: %w", idmerrors.ErrUserDeviceNotAuthorized), http.StatusForbidden, "USER_DEVICE_NOT_AUTHORIZED", "user device not authorized"},
		{"infrastructure error", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RenderError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

func TestRenderError_Details(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderError(rec, httptest.NewRequest(http.MethodGet, "/", nil), idmerrors.ErrUserNotFound.WithDetail("email", "ann@x.com"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ann@x.com", body.Details["email"])
}

func TestRenderBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderBadRequest(rec, httptest.NewRequest(http.MethodPost, "/", nil), "email", "is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_INPUT", body.Code)
	assert.Equal(t, "invalid email: is required", body.Error)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", ClientIP(req, true))

	req.Header.Set("X-Real-IP", "5.6.7.8")
	assert.Equal(t, "5.6.7.8", ClientIP(req, true))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", ClientIP(req, true))
}

func TestClientIP_IgnoresProxyHeadersUnlessTrusted(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.Header.Set("X-Real-IP", "5.6.7.8")

	assert.Equal(t, "203.0.113.9", ClientIP(req, false))
}
