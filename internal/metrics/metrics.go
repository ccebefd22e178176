// Package metrics defines the Prometheus instruments shared across the
// service. Collectors register themselves on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcome label values.
const (
	LoginSuccess         = "success"
	LoginUnauthenticated = "unauthenticated"
	LoginMFARequired     = "mfa_required"
	LoginError           = "error"
)

var (
	// LoginAttempts counts authentication attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "halcyon",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Authentication attempts by outcome.",
	}, []string{"result"})

	// LastLoginFailures counts best-effort last_login updates that failed.
	// These never fail the login itself.
	LastLoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "halcyon",
		Subsystem: "auth",
		Name:      "last_login_update_failures_total",
		Help:      "Failed best-effort last_login updates.",
	})

	// SessionsIssued counts sessions created by login, refresh and
	// federated authentication.
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "halcyon",
		Subsystem: "session",
		Name:      "issued_total",
		Help:      "Sessions issued.",
	})

	// SessionsRevoked counts sessions removed by logout, refresh rotation
	// and logout-all.
	SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "halcyon",
		Subsystem: "session",
		Name:      "revoked_total",
		Help:      "Sessions revoked.",
	})

	// RBACCacheHits counts permission decisions served from the cache.
	RBACCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "halcyon",
		Subsystem: "rbac",
		Name:      "cache_hits_total",
		Help:      "Permission decisions served from the cache.",
	})

	// RBACCacheMisses counts permission decisions that had to be computed.
	RBACCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "halcyon",
		Subsystem: "rbac",
		Name:      "cache_misses_total",
		Help:      "Permission decisions computed on a cache miss.",
	})

	// HTTPRequestDuration observes request latency by method, route and
	// status class.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "halcyon",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
