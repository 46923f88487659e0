package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tacacs-admin/internal/dto"
	"tacacs-admin/internal/observability/metrics"
	obsmw "tacacs-admin/internal/observability/middleware"

	"github.com/golang-jwt/jwt/v5"
)

// AdminGuard accepts HS256/384/512 bearer tokens signed with a shared secret.
// When an issuer is configured the token must carry it.
type AdminGuard struct {
	secret []byte
	issuer string
}

func NewAdminGuard(secret, issuer string) *AdminGuard {
	return &AdminGuard{secret: []byte(secret), issuer: issuer}
}

func (g *AdminGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := obsmw.RequestIDFromContext(r.Context())
		traceID := obsmw.TraceIDFromContext(r.Context())

		sub, err := g.subject(r.Header.Get("Authorization"))
		if err != nil {
			metrics.AdminAuthAttemptsTotal.WithLabelValues("failure").Inc()
			slog.Warn("admin auth rejected", "error", err, "request_id", reqID, "trace_id", traceID)
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Reason: dto.ReasonUnauthorized})
			return
		}
		metrics.AdminAuthAttemptsTotal.WithLabelValues("success").Inc()
		slog.Debug("admin auth passed", "subject", sub, "request_id", reqID, "trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(contextWithSubject(r.Context(), sub)))
	})
}

func (g *AdminGuard) subject(header string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", errMissingBearer
	}
	raw := strings.TrimSpace(header[len("Bearer "):])

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if g.issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.issuer))
	}
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	if claims.Subject == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

type subjectKey struct{}

func contextWithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFrom returns the admin identity attached by AdminGuard.
func SubjectFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey{}).(string)
	return v, ok
}
