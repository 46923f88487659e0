package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	obsmw "tacacs-admin/internal/observability/middleware"
)

var (
	errMissingBearer = errors.New("missing bearer token")
	errInvalidToken  = errors.New("invalid token")
	errNoSubject     = errors.New("token has no subject")
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// errorStatus maps service errors onto HTTP status codes and reasons.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, dto.ReasonNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, dto.ReasonValidation
	case errors.Is(err, domain.ErrReplayDetected):
		return http.StatusConflict, dto.ReasonReplayDetected
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, dto.ReasonConflict
	case errors.Is(err, domain.ErrUserDisabled):
		return http.StatusForbidden, dto.ReasonUserDisabled
	case errors.Is(err, domain.ErrTotpNotEnabled):
		return http.StatusForbidden, dto.ReasonTotpNotEnabled
	case errors.Is(err, domain.ErrLockedOut):
		return http.StatusLocked, dto.ReasonLockedOut
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, dto.ReasonStoreUnavailable
	default:
		return http.StatusInternalServerError, dto.ReasonInternal
	}
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, reason := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	attrs := []any{
		"op", op,
		"status", status,
		"error", err,
		"request_id", obsmw.RequestIDFromContext(r.Context()),
		"trace_id", obsmw.TraceIDFromContext(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Warn("request rejected", attrs...)
	}
	writeJSON(w, status, dto.ErrorResponse{Error: msg, Reason: reason})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched when
// optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest("malformed JSON body: %v", err)
	}
	return nil
}
