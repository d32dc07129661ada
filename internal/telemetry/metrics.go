// Package telemetry exposes prometheus metrics for the API and the scorer.
package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// PredictionsTotal counts scored records by risk tier.
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total churn predictions served, by risk tier",
		},
		[]string{"tier"},
	)

	// ChurnProbability observes the distribution of served probabilities.
	ChurnProbability = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "churn_probability",
		Help:    "Distribution of predicted churn probabilities",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	// ModelLoaded reports whether a model artifact is available (1) or not (0).
	ModelLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "model_loaded",
		Help: "Whether the churn model artifact is loaded",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, PredictionsTotal, ChurnProbability, ModelLoaded)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
