package server

import (
	"context"
	"log/slog"
	"net/http"

	"livematch-service/internal/app/matches"
	"livematch-service/internal/cache"
	"livematch-service/internal/config"
	"livematch-service/internal/feed"
	httpserver "livematch-service/internal/http"
	"livematch-service/internal/http/handlers"
	"livematch-service/internal/http/middleware"
	"livematch-service/internal/logging"
	"livematch-service/internal/metrics"
	"livematch-service/internal/scheduler"
)

var metricsSetup = metrics.Setup

// Server owns the composition: providers, scheduler, match service, and the
// HTTP and metrics listeners.
type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	scheduler     *scheduler.Scheduler
	matchService  *matches.Service
	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error
	providerStop  func()
}

// New constructs a server with default provider wiring.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithMetrics(cfg, logger, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) *Server {
	recorder, metricsSrv, metricsStop := buildMetrics(cfg, logger, recorder)
	data, external, providerStop := buildProviders(cfg, logger, recorder)

	sched := scheduler.New(cache.NewStore(), logger, recorder)
	svc := matches.NewService(context.Background(), matches.Options{
		Scheduler: sched,
		Backend:   data,
		Matcher:   feed.NewMatcher(external, logger, recorder),
		Push:      cfg.Push,
		Intervals: cfg.Intervals,
		League:    cfg.League,
		Logger:    logger,
		Metrics:   recorder,
	})

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		scheduler:     sched,
		matchService:  svc,
		httpServer:    buildHTTPServer(cfg, svc, logger, recorder),
		metricsServer: metricsSrv,
		metricsStop:   metricsStop,
		providerStop:  providerStop,
	}
}

func buildHTTPServer(cfg config.Config, svc *matches.Service, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	handler := handlers.NewHandler(svc, logger)
	router := httpserver.NewRouter(handler)
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	wrapped := middleware.LoggingMiddleware(logger, recorder, router)

	return netHTTPServer{srv: &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      wrapped,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}}
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}
	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{srv: &http.Server{
			Addr:    ":" + recCfg.Port,
			Handler: handler,
		}}
	}
	return rec, metricsSrv, shutdown
}

// Run starts the listeners and blocks until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	if s.metricsServer != nil {
		launchServer("metrics", s.metricsServer, s.logger, nil)
	}
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")
	s.gracefulShutdown()
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	// Sessions first: they hold push connections and polling timers.
	s.matchService.Close()
	s.scheduler.Close()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}
	if s.providerStop != nil {
		s.providerStop()
	}
	logging.Info(s.logger, "shutdown complete")
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
