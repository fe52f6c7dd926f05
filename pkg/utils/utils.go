package utils

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	idmerrors "github.com/jarvisapp/jarvis-idm/pkg/errors"
)

type ErrorResponse struct {
	Code    string                 `json:"code"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RenderError writes err as JSON with the status of its error code. Errors
// without a code are logged and reported as a bare internal error.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	code := idmerrors.GetCode(err)
	status := idmerrors.MapErrorCodeToHTTPStatus(code)

	resp := ErrorResponse{Code: string(code), Error: http.StatusText(status)}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		var e *idmerrors.Error
		if errors.As(err, &e) {
			resp.Error = e.Message
			resp.Details = e.Details
		}
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// RenderBadRequest reports a request that failed validation as INVALID_INPUT.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, field, reason string) {
	RenderError(w, r, idmerrors.InvalidInput(field, reason))
}

// ClientIP returns the public address of the caller. X-Forwarded-For and
// X-Real-IP are read only when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
