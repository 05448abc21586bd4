package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	corenotify "github.com/artpar/rollout/internal/core/notify"
	"github.com/artpar/rollout/internal/shell/api"
	shellnotify "github.com/artpar/rollout/internal/shell/notify"
	"github.com/artpar/rollout/internal/shell/store"
	"github.com/artpar/rollout/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 3
)

// =============================================================================
// Server
// =============================================================================

// Server represents the rollout application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	dispatcher *corenotify.Dispatcher
	monitor    *workers.DeadlineMonitor
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	// Connect storage; an empty DSN keeps timelines in memory.
	var (
		s   store.Store
		err error
	)
	if cfg.Database.DSN == "" {
		s = store.NewMemoryStore()
		logger.Info("using in-memory timeline store")
	} else {
		s, err = store.NewSQLiteStore(cfg.Database.DSN)
		if err != nil {
			return nil, &ServerError{
				Op:       "NewServer",
				Err:      err,
				ExitCode: ExitDatabaseError,
			}
		}
	}

	// Wire notification channels. Console is the built-in default; the
	// log channel mirrors deliveries into structured logs, and the
	// webhook channel is enabled by configuration.
	dispatcher := corenotify.NewDispatcher(logger)
	dispatcher.RegisterHandler("log", shellnotify.LogHandler(logger))
	if cfg.Notify.WebhookURL != "" {
		dispatcher.RegisterHandler(corenotify.ChannelWebhook, shellnotify.WebhookHandler(shellnotify.WebhookConfig{
			URL:     cfg.Notify.WebhookURL,
			Timeout: cfg.Notify.WebhookTimeout,
		}, logger))
		logger.Info("webhook notifications enabled", "url", cfg.Notify.WebhookURL)
	}

	handler := api.NewHandler(s, dispatcher, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var monitor *workers.DeadlineMonitor
	if cfg.Monitor.Enabled {
		monitor = workers.NewDeadlineMonitor(s, dispatcher, workers.DeadlineMonitorConfig{
			Interval: cfg.Monitor.Interval,
		}, logger)
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		dispatcher: dispatcher,
		monitor:    monitor,
		logger:     logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if s.monitor != nil {
		s.monitor.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if s.monitor != nil {
		s.monitor.Stop()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("store close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
