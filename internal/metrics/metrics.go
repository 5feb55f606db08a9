// Package metrics holds the Prometheus collectors exported by murmur.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for AuthAttempts.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

var (
	// AuthAttempts counts sign-in and sign-up attempts by action and outcome.
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "murmur_auth_attempts_total",
			Help: "Total number of sign-in and sign-up attempts by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// SessionsCreated counts issued sessions.
	SessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "murmur_sessions_created_total",
		Help: "Total number of sessions issued",
	})

	// SessionsInvalidated counts sessions removed by logout.
	SessionsInvalidated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "murmur_sessions_invalidated_total",
		Help: "Total number of sessions invalidated on logout",
	})

	// SessionsExpired counts expired sessions removed lazily or by the sweeper.
	SessionsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "murmur_sessions_expired_total",
		Help: "Total number of expired sessions deleted",
	})

	// PostsCreated counts published posts.
	PostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "murmur_posts_created_total",
		Help: "Total number of posts created",
	})

	// Users, Posts and ActiveSessions are refreshed periodically from the database.
	Users = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_users",
		Help: "Number of registered users",
	})
	Posts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_posts",
		Help: "Number of posts",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_active_sessions",
		Help: "Number of unexpired sessions",
	})

	// FeedClients tracks connected live feed websocket clients.
	FeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_feed_clients",
		Help: "Number of connected live feed clients",
	})
)

// NewRegistry creates a registry holding the murmur collectors plus the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		AuthAttempts,
		SessionsCreated,
		SessionsInvalidated,
		SessionsExpired,
		PostsCreated,
		FeedClients,
		Users,
		Posts,
		ActiveSessions,
	)
	return reg
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
