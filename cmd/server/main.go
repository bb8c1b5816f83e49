package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/idudko/promreg/internal/handler"
	"github.com/idudko/promreg/internal/middleware"
	"github.com/idudko/promreg/pkg/binder"
	"github.com/idudko/promreg/pkg/meter"
	"github.com/idudko/promreg/pkg/registry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := LoadConfig(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	opts := []registry.Option{
		registry.WithStep(cfg.Step),
		registry.WithLogger(log.Logger.With().Str("component", "registry").Logger()),
		registry.WithRegistrationFailedListener(func(id meter.ID, err error) {
			log.Warn().Err(err).Str("meter", id.String()).Msg("meter was not registered")
		}),
	}
	if cfg.Strict {
		opts = append(opts, registry.WithStrictRegistration())
	}
	reg := registry.New(opts...)
	defer reg.Close()

	if err := binder.BindAll(reg,
		binder.NewRuntime(cfg.RefreshInterval),
		binder.NewProcess(),
		binder.NewSystem(),
	); err != nil {
		log.Warn().Err(err).Msg("some binders failed")
	}

	h := handler.NewHandler(reg)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.MetricsMiddleware(reg))
	r.Get("/health", h.HealthHandler)
	r.Group(func(r chi.Router) {
		r.Use(middleware.TrustedSubnetMiddleware(reg, cfg.TrustedSubnet))
		r.Use(middleware.GzipResponseMiddleware)
		r.Use(middleware.SigningMiddleware(cfg.Key))
		r.Get(cfg.MetricsPath, h.MetricsHandler)
		r.Get("/meters", h.MetersHandler)
	})

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Info().
			Str("address", cfg.Address).
			Str("metrics_path", cfg.MetricsPath).
			Dur("step", cfg.Step).
			Bool("strict", cfg.Strict).
			Str("config_file", cfg.ConfigFile()).
			Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
