package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tacacs-admin/internal/domain"
	obsmw "tacacs-admin/internal/observability/middleware"
	"tacacs-admin/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	MFA     service.MFAService
	Authz   service.AuthzService
	Export  service.ExportService
	Records service.RecordService
	// Ready reports store reachability for /healthz; nil means always ready.
	Ready func(ctx context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	CORSOrigins        []string
	// AdminTokenSecret enables the bearer-token guard on /v1 when set.
	AdminTokenSecret string
	AdminTokenIssuer string
	RequestTimeout   time.Duration
}

type handler struct {
	Services
}

func NewRouter(svc Services, opts Options) *chi.Mux {
	h := &handler{Services: svc}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(obsmw.WithRequestAndTrace)
	r.Use(obsmw.WithMetrics)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(opts.RequestTimeout))
	if opts.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Trace-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-Trace-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if opts.AdminTokenSecret != "" {
			r.Use(NewAdminGuard(opts.AdminTokenSecret, opts.AdminTokenIssuer).Middleware)
		}

		r.Get("/totp", h.listTotp)
		r.Post("/config/export", h.exportConfig)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Route("/{username}", func(r chi.Router) {
				r.Put("/", h.putUser)
				r.Get("/", h.getUser)
				r.Delete("/", h.deleteUser)

				r.Post("/totp", h.issueTotp)
				r.Get("/totp", h.getTotp)
				r.Delete("/totp", h.deleteTotp)
				r.Post("/totp/verify", h.verifyTotp)
				r.Post("/totp/disable", h.disableTotp)
				r.Post("/totp/lock", h.lockTotp)

				r.Get("/hosts", h.userHosts)
				r.Get("/access", h.userAccess)
			})
		})

		r.Route("/user-groups", func(r chi.Router) {
			r.Get("/", h.listUserGroups)
			r.Route("/{name}", func(r chi.Router) {
				r.Put("/", h.putUserGroup)
				r.Get("/", h.getUserGroup)
				r.Delete("/", h.deleteUserGroup)
				r.Get("/members", h.listMembers)
				r.Put("/members/{username}", h.putMember)
				r.Delete("/members/{username}", h.deleteMember)
			})
		})

		r.Route("/hosts", func(r chi.Router) {
			r.Get("/", h.listHosts)
			r.Put("/{address}", h.putHost)
			r.Get("/{address}", h.getHost)
			r.Delete("/{address}", h.deleteHost)
		})

		r.Route("/host-groups", func(r chi.Router) {
			r.Get("/", h.listHostGroups)
			r.Route("/{name}", func(r chi.Router) {
				r.Put("/", h.putHostGroup)
				r.Get("/", h.getHostGroup)
				r.Delete("/", h.deleteHostGroup)
				r.Get("/members", h.listHostMembers)
				r.Put("/members/{address}", h.putHostMember)
				r.Delete("/members/{address}", h.deleteHostMember)
			})
		})

		r.Route("/policies", func(r chi.Router) {
			r.Put("/", h.putPolicy)
			r.Get("/", h.listPolicies)
			r.Route("/{policyID}", func(r chi.Router) {
				r.Get("/", h.getPolicy)
				r.Delete("/", h.deletePolicy)
				r.Post("/evaluate", h.evaluateCommand)
				r.Post("/rules", h.addRule)
				r.Get("/rules", h.listRules)
				r.Post("/avpairs", h.addAVPair)
				r.Get("/avpairs", h.listAVPairs)
				r.Delete("/avpairs", h.deleteAVPairs)
			})
		})

		r.Get("/rules/{ruleID}", h.getRule)
		r.Delete("/rules/{ruleID}", h.deleteRule)
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeError(w, r, "health", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
