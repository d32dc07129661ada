// Package api wires the churn scoring service behind an HTTP router:
// authentication, single and batch prediction, prediction history and
// aggregate views over it.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/mvetrov/churnguard/internal/auth"
	"github.com/mvetrov/churnguard/internal/scoring"
	"github.com/mvetrov/churnguard/internal/store"
	"github.com/mvetrov/churnguard/internal/telemetry"
)

// maxUploadBytes caps batch CSV uploads.
const maxUploadBytes = 16 << 20 // 16 MiB

// Server holds the API dependencies. All state is injected; the server owns
// nothing mutable beyond its handlers.
type Server struct {
	store        store.Store
	scorer       *scoring.Scorer
	auth         *auth.Service
	log          zerolog.Logger
	historyLimit int
	ratePerIP    int
	debug        bool
}

// Options configures a Server beyond its required dependencies.
type Options struct {
	HistoryLimit int  // max prediction-history rows per request (default 50)
	RatePerIP    int  // requests per minute per IP (default 100)
	Debug        bool // expose internal error detail (never in production)
}

// NewServer builds the API server around an injected store, scorer and auth
// service.
func NewServer(st store.Store, sc *scoring.Scorer, as *auth.Service, log zerolog.Logger, opts Options) *Server {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.RatePerIP <= 0 {
		opts.RatePerIP = 100
	}
	return &Server{
		store:        st,
		scorer:       sc,
		auth:         as,
		log:          log,
		historyLimit: opts.HistoryLimit,
		ratePerIP:    opts.RatePerIP,
		debug:        opts.Debug,
	}
}

// Router assembles the HTTP routes and middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(httprate.LimitByIP(s.ratePerIP, time.Minute))
	r.Use(telemetry.Middleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth)
			r.Post("/predict", s.handlePredict)
			r.Post("/predict/batch", s.handleBatchPredict)
			r.Get("/predictions", s.handlePredictions)
			r.Get("/segments", s.handleSegments)
			r.Get("/metrics/summary", s.handleMetricsSummary)
		})
	})

	return r
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		ModelLoaded: s.scorer.Available(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
