package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TotpIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacacs_totp_issued_total",
			Help: "Total number of TOTP enrolments.",
		},
		[]string{"result"},
	)

	TotpVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacacs_totp_verifications_total",
			Help: "Total number of TOTP verifications by outcome.",
		},
		[]string{"result"},
	)

	TotpLockoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tacacs_totp_lockouts_total",
			Help: "Total number of temporary TOTP lockouts applied.",
		},
	)

	ResolverLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacacs_resolver_lookups_total",
			Help: "Total number of authorization resolver calls.",
		},
		[]string{"op", "result"},
	)

	AdminAuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacacs_admin_auth_attempts_total",
			Help: "Total number of admin bearer-token checks by outcome.",
		},
		[]string{"result"},
	)

	ExportRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacacs_export_runs_total",
			Help: "Total number of configuration exports.",
		},
		[]string{"result"},
	)

	ExportDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tacacs_export_duration_seconds",
			Help:    "Duration of configuration exports.",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExportRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tacacs_export_records",
			Help: "Records written to each file by the last successful export.",
		},
		[]string{"file"},
	)
)

// MustRegister registers every collector on the default registry with a
// constant service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		TotpIssuedTotal,
		TotpVerificationsTotal,
		TotpLockoutsTotal,
		ResolverLookupsTotal,
		AdminAuthAttemptsTotal,
		ExportRunsTotal,
		ExportDurationSeconds,
		ExportRecords,
	)
}
