package httpd

import (
	"errors"
	"net/http"

	"github.com/halcyondev/authgate"
	"github.com/halcyondev/authgate/httpapi"
)

// writeError maps an engine error to its status code and stable error
// kind. Unknown errors become 500 without leaking detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, authgate.ErrInvalidFormat):
		status, kind = http.StatusBadRequest, "invalid_format"
	case errors.Is(err, authgate.ErrPasswordMismatch):
		status, kind = http.StatusBadRequest, "password_mismatch"
	case errors.Is(err, authgate.ErrCodeMismatch):
		status, kind = http.StatusBadRequest, "code_mismatch"

	case errors.Is(err, authgate.ErrInvalidCredentials):
		status, kind = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, authgate.ErrTokenMalformed):
		status, kind = http.StatusUnauthorized, "malformed"
	case errors.Is(err, authgate.ErrTokenExpired):
		status, kind = http.StatusUnauthorized, "expired"
	case errors.Is(err, authgate.ErrTokenRevoked):
		status, kind = http.StatusUnauthorized, "revoked"

	case errors.Is(err, authgate.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, authgate.ErrConflict):
		status, kind = http.StatusConflict, "conflict"

	case errors.Is(err, authgate.ErrCodeExpired):
		status, kind = http.StatusGone, "code_expired"
	case errors.Is(err, authgate.ErrCodeAlreadyUsed):
		status, kind = http.StatusGone, "code_already_used"
	case errors.Is(err, authgate.ErrCodeSuperseded):
		status, kind = http.StatusGone, "code_superseded"
	case errors.Is(err, authgate.ErrCodeAttempts):
		status, kind = http.StatusGone, "code_attempts_exceeded"

	case errors.Is(err, authgate.ErrRateLimited):
		w.Header().Set("Retry-After", s.retryAfterValue())
		status, kind = http.StatusTooManyRequests, "rate_limited"

	case errors.Is(err, authgate.ErrDispatchFailed):
		status, kind = http.StatusBadGateway, "dispatch_failed"
	case errors.Is(err, authgate.ErrUnavailable), errors.Is(err, authgate.ErrEngineNotReady):
		status, kind = http.StatusServiceUnavailable, "unavailable"
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "kind", kind, "err", err)
	}
	writeJSON(w, status, httpapi.ErrorResponse{Error: kind})
}
