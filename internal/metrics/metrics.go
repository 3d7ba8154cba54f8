// Package metrics holds the Prometheus collectors shared by the auth server
// and the portal.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Recorder owns a private registry rather than the global default one.
type Recorder struct {
	registry      *prometheus.Registry
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	verifications *prometheus.CounterVec
	requests      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refreshes_total",
			Help: "Refresh token exchanges by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_verifications_total",
			Help: "Token verifications by token kind and status.",
		}, []string{"kind", "status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	r.registry.MustRegister(
		r.logins,
		r.refreshes,
		r.verifications,
		r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Login(outcome string) {
	r.logins.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Refresh(outcome string) {
	r.refreshes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Verification(kind, status string) {
	r.verifications.WithLabelValues(kind, status).Inc()
}

func (r *Recorder) Request(route string, code int) {
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Counters exposes the collectors for assertions in tests.
func (r *Recorder) Counters() (logins, refreshes, verifications, requests *prometheus.CounterVec) {
	return r.logins, r.refreshes, r.verifications, r.requests
}
