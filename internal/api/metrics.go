package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_http_requests_total",
		Help: "HTTP requests handled, by method.",
	}, []string{"method"})

	authDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_auth_decisions_total",
		Help: "Login callback authorization outcomes.",
	}, []string{"outcome"})

	invitationOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_invitation_operations_total",
		Help: "Invitation lifecycle operations, by operation and outcome.",
	}, []string{"operation", "outcome"})
)

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues(r.Method).Inc()
		next.ServeHTTP(w, r)
	})
}
