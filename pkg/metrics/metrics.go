package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	NegotiationOffers   *prometheus.CounterVec
	NegotiationSessions prometheus.Gauge
	OrdersPlaced        prometheus.Counter
}

// New registers the CamGrocer collectors on a fresh registry, so tests can
// build as many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camgrocer_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		NegotiationOffers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camgrocer_negotiation_offers_total",
			Help: "Offers submitted to the negotiation engine by outcome.",
		}, []string{"outcome"}),
		NegotiationSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camgrocer_negotiation_sessions_active",
			Help: "Open negotiation dialogues.",
		}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camgrocer_orders_placed_total",
			Help: "Orders placed.",
		}),
	}
	m.registry.MustRegister(
		m.HTTPRequests,
		m.NegotiationOffers,
		m.NegotiationSessions,
		m.OrdersPlaced,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveOffer(outcome string) {
	m.NegotiationOffers.WithLabelValues(outcome).Inc()
}
