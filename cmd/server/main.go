package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvetrov/churnguard/internal/api"
	"github.com/mvetrov/churnguard/internal/auth"
	"github.com/mvetrov/churnguard/internal/config"
	"github.com/mvetrov/churnguard/internal/logger"
	"github.com/mvetrov/churnguard/internal/model"
	"github.com/mvetrov/churnguard/internal/scoring"
	"github.com/mvetrov/churnguard/internal/store"
	"github.com/mvetrov/churnguard/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		println("config:", err.Error())
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	telemetry.Init()

	// The model adapter is loaded once and injected; a missing artifact
	// keeps the server up with scoring returning 503 until a restart with a
	// valid model.
	adapter, err := model.LoadAdapter(cfg.ModelPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.ModelPath).
			Msg("model artifact not loaded; scoring is unavailable until retrain/restart")
		telemetry.ModelLoaded.Set(0)
	} else {
		log.Info().Str("path", cfg.ModelPath).Msg("model artifact loaded")
		telemetry.ModelLoaded.Set(1)
	}

	scorer := scoring.NewScorer(adapter)
	authSvc := auth.NewService(st, cfg.TokenPrefix)

	srvAPI := api.NewServer(st, scorer, authSvc, log, api.Options{
		HistoryLimit: cfg.HistoryLimit,
		RatePerIP:    cfg.RateLimitPerIP,
		Debug:        cfg.Debug,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}
