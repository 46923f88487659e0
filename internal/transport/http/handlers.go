package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	obsmw "tacacs-admin/internal/observability/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// pathParam returns the unescaped URL parameter. CIDR addresses arrive with
// the slash escaped as %2F.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(pathParam(r, name)))
	if err != nil {
		return uuid.Nil, badRequest("invalid %s", name)
	}
	return id, nil
}

func logOK(r *http.Request, msg string, args ...any) {
	args = append(args,
		"request_id", obsmw.RequestIDFromContext(r.Context()),
		"trace_id", obsmw.TraceIDFromContext(r.Context()),
	)
	slog.Info(msg, args...)
}

func (h *handler) issueTotp(w http.ResponseWriter, r *http.Request) {
	username := pathParam(r, "username")
	var req dto.IssueTotpRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, "issue_totp", err)
		return
	}
	res, err := h.MFA.Issue(r.Context(), username, req)
	if err != nil {
		writeError(w, r, "issue_totp", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) getTotp(w http.ResponseWriter, r *http.Request) {
	res, err := h.MFA.Get(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, "get_totp", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) verifyTotp(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyTotpRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, "verify_totp", err)
		return
	}
	res, err := h.MFA.Verify(r.Context(), pathParam(r, "username"), req)
	if err != nil {
		writeError(w, r, "verify_totp", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) disableTotp(w http.ResponseWriter, r *http.Request) {
	res, err := h.MFA.Disable(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, "disable_totp", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) lockTotp(w http.ResponseWriter, r *http.Request) {
	var req dto.LockTotpRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, "lock_totp", err)
		return
	}
	res, err := h.MFA.Lock(r.Context(), pathParam(r, "username"), req)
	if err != nil {
		writeError(w, r, "lock_totp", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteTotp(w http.ResponseWriter, r *http.Request) {
	res, err := h.MFA.Delete(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, "delete_totp", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listTotp(w http.ResponseWriter, r *http.Request) {
	res, err := h.MFA.List(r.Context())
	if err != nil {
		writeError(w, r, "list_totp", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) userHosts(w http.ResponseWriter, r *http.Request) {
	res, err := h.Authz.ResolveHostsForUser(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, "resolve_hosts", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) userAccess(w http.ResponseWriter, r *http.Request) {
	res, err := h.Authz.ResolveAccess(r.Context(), pathParam(r, "username"), r.URL.Query().Get("host"))
	if err != nil {
		writeError(w, r, "resolve_access", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) evaluateCommand(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "evaluate_command", err)
		return
	}
	var req dto.EvaluateCommandRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, "evaluate_command", err)
		return
	}
	res, err := h.Authz.EvaluateCommand(r.Context(), id, req.Command)
	if err != nil {
		writeError(w, r, "evaluate_command", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) exportConfig(w http.ResponseWriter, r *http.Request) {
	res, err := h.Export.Export(r.Context())
	if err != nil {
		writeError(w, r, "export_config", err)
		return
	}
	logOK(r, "config export requested", "path", res.Path)
	writeJSON(w, http.StatusOK, res)
}
