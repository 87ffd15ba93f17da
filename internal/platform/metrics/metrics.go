package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway decision outcomes.
const (
	OutcomeAllow         = "allow"
	OutcomeLoginRedirect = "login_redirect"
	OutcomeHomeRedirect  = "home_redirect"
)

// Metrics holds all Prometheus metrics for the auth subsystem.
type Metrics struct {
	GatewayDecisions     *prometheus.CounterVec
	CallbackOutcomes     *prometheus.CounterVec
	ProfileFetchSeconds  prometheus.Histogram
	ProfileFetchTimeouts prometheus.Counter
	SessionsRefreshed    prometheus.Counter
	SignOuts             prometheus.Counter
}

// New creates and registers all Prometheus metrics against reg. Tests pass a
// fresh registry to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GatewayDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pressroom_gateway_decisions_total",
			Help: "Authorization decisions made by the edge gateway, by outcome",
		}, []string{"outcome"}),
		CallbackOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pressroom_auth_callback_total",
			Help: "OAuth completion results, by terminal state",
		}, []string{"result"}),
		ProfileFetchSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pressroom_profile_fetch_seconds",
			Help:    "Latency of profile lookups during session resolution",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
		}),
		ProfileFetchTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pressroom_profile_fetch_timeouts_total",
			Help: "Profile lookups abandoned at the resolution deadline",
		}),
		SessionsRefreshed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pressroom_sessions_refreshed_total",
			Help: "Silent access-token refreshes performed during resolution",
		}),
		SignOuts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pressroom_signouts_total",
			Help: "Completed sign-out requests",
		}),
	}
}
