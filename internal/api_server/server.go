package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/crewforge/content-orchestrator/internal/config"
	handlers "github.com/crewforge/content-orchestrator/internal/handlers/v1alpha1"
	"github.com/crewforge/content-orchestrator/internal/notifier"
	"github.com/crewforge/content-orchestrator/internal/runner"
	"github.com/crewforge/content-orchestrator/internal/service"
	"github.com/crewforge/content-orchestrator/internal/store"
	"github.com/crewforge/content-orchestrator/internal/stream"
	"github.com/crewforge/content-orchestrator/internal/workunit"
	"github.com/crewforge/content-orchestrator/pkg/metrics"
	"github.com/crewforge/content-orchestrator/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	registry *workunit.Registry
	hub      *stream.Hub
	listener net.Listener
}

// New returns a new instance of a content-orchestrator server.
func New(
	cfg *config.Config,
	store store.Store,
	registry *workunit.Registry,
	hub *stream.Hub,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		hub:      hub,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           3600,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	jobNotifier := notifier.New(s.cfg.Service.WebhookTimeout, s.cfg.Service.WebhookMaxAttempts)
	jobRunner := runner.New(s.store, s.registry, jobNotifier, s.hub, s.cfg.Service.MaxConcurrentJobs)
	jobService := service.NewJobService(s.store, s.registry, jobRunner, jobNotifier)

	h := handlers.NewServiceHandler(jobService, s.hub, s.cfg.Service.DefaultUnit)
	h.Routes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
