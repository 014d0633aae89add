package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledgerhub"

type Prom struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Ledger
	AppendsTotal   *prometheus.CounterVec
	AppendDuration *prometheus.HistogramVec
	RateLimited    prometheus.Counter
	AuthzDenied    *prometheus.CounterVec
}

// NewProm registers every collector on a fresh registry, so tests can build
// as many as they like without clashing on the global one.
func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Prom{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		AppendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "appends_total",
				Help:      "Ledger appends by outcome.",
			},
			[]string{"result"}, // result=committed|failed|invalid
		),
		AppendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "append_duration_seconds",
				Help:      "Time from validation to commit or rollback.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
			},
			[]string{"result"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter.",
			},
		),
		AuthzDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "authz",
				Name:      "denied_total",
				Help:      "Authorization denials by reason.",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.AppendsTotal, p.AppendDuration,
		p.RateLimited, p.AuthzDenied,
	)

	return p
}

// ObserveAppend satisfies ledger.Observer.
func (p *Prom) ObserveAppend(result string, d time.Duration) {
	p.AppendsTotal.WithLabelValues(result).Inc()
	p.AppendDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (p *Prom) ObserveDenied(reason string) {
	p.AuthzDenied.WithLabelValues(reason).Inc()
}

func (p *Prom) ObserveRateLimited() {
	p.RateLimited.Inc()
}

func (p *Prom) Gatherer() prometheus.Gatherer { return p.registry }

// Handler serves the /metrics endpoint.
func (p *Prom) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
