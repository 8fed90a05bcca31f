package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginSuccesses  prometheus.Counter
	LoginFailures   prometheus.Counter
	SessionsRevoked prometheus.Counter
}

// New creates and registers the metrics against reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "todo_users_registered_total",
			Help: "Total number of users registered.",
		}),
		LoginSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "todo_login_successes_total",
			Help: "Total number of successful logins.",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "todo_login_failures_total",
			Help: "Total number of failed login attempts.",
		}),
		SessionsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "todo_sessions_revoked_total",
			Help: "Total number of sessions destroyed by logout.",
		}),
	}
}
