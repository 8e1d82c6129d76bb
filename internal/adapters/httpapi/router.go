package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
)

// Options configures the read-only HTTP surface
type Options struct {
	MetricsPath    string
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Metrics records per-route request counts and latency when set
	Metrics *metrics.HTTPMetricsCollector
}

// Server exposes the transition audit feed, the due-task feed, batch
// projections and Prometheus metrics. It never mutates state.
type Server struct {
	mediator mediator.Mediator
	registry *prometheus.Registry
	opts     Options
}

// NewServer creates the HTTP feed server. registry may be nil when metrics are disabled.
func NewServer(m mediator.Mediator, registry *prometheus.Registry, opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	return &Server{mediator: m, registry: registry, opts: opts}
}

// Routes wires middlewares and endpoints
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		r.Use(requestMetrics(s.opts.Metrics))
	}
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/feeds", func(fr chi.Router) {
		fr.Get("/transitions", s.handleTransitions)
		fr.Get("/due-tasks", s.handleDueTasks)
	})

	r.Get("/batches/{id}", s.handleBatchState)
	r.Get("/crops/{id}/history", s.handleCropHistory)
	r.Get("/plans", s.handleListPlans)

	if s.registry != nil {
		r.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return r
}

// requestMetrics records each request under the route pattern chi matched
func requestMetrics(collector *metrics.HTTPMetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			collector.RecordRequest(r.Method, route, status, time.Since(start).Seconds())
		})
	}
}
