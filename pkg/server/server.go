package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/de-tools/clickstream-atlas/pkg/handlers/analytics"
	clickstreammiddleware "github.com/de-tools/clickstream-atlas/pkg/server/middleware"
	"github.com/de-tools/clickstream-atlas/pkg/services/analytics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Analytics analytics.Service
	// DefaultSeed is used by the experiment endpoint when no seed is given.
	DefaultSeed uint64
	Logger      zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) *chi.Mux {
	h := handlers.NewHandler(config.Dependencies.Analytics, config.Dependencies.DefaultSeed)
	logger := config.Dependencies.Logger

	router := chi.NewRouter()

	router.Use(clickstreammiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/kpis", h.GetKPIs)
		r.Get("/funnel", h.GetFunnel)
		r.Get("/monthly", h.ListMonthlyMetrics)
		r.Get("/brands", h.ListBrandRevenue)
		r.Get("/summary", h.GetSummary)
		r.Get("/categories/top", h.ListTopCategories)
		r.Get("/retention", h.GetRetention)
		r.Get("/experiment", h.GetExperiment)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/latency", h.GetRunLatency)
	})

	return router
}

func NewWebAPI(config Config) *WebAPI {
	router := ConfigureRouter(config)
	logger := config.Dependencies.Logger

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
