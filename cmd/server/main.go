package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stasis/internal/api"
	"stasis/internal/config"
	"stasis/internal/logs"
	"stasis/internal/metrics"
	"stasis/internal/server"
	"stasis/internal/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	level, err := logs.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	// Logger
	writers := []io.Writer{logs.ConsoleWriter(os.Stdout)}
	if cfg.LogFile != "" {
		f, err := logs.OpenFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		writers = append(writers, f)
	}
	logger := logs.NewLogger(cfg.LogBuffer, level, writers...)

	// Metrics
	metricsRegistry := metrics.NewRegistry()

	// Store
	engine := store.NewEngine(metricsRegistry, logger)
	defer engine.Close()

	// TCP server
	tcpServer, err := server.NewServer(
		engine.Store(),
		server.Options{Framing: cfg.Framing, MaxFrame: cfg.MaxFrame},
		logger,
		metricsRegistry,
	)
	if err != nil {
		return err
	}

	// API
	handler := api.NewHandler(engine.Store(), metricsRegistry, logger, cfg.MaxFrame)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	tcpErr := make(chan error, 1)
	httpErr := make(chan error, 1)

	go func() {
		logger.Infof("listening on %s (%s framing)", cfg.Addr, cfg.Framing)
		tcpErr <- tcpServer.ListenAndServe(ctx, cfg.Addr)
	}()

	go func() {
		logger.Infof("admin api listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("admin api: %w", err)
			return
		}
		httpErr <- nil
	}()

	tcpDone := false
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err = <-tcpErr:
		tcpDone = true
	case err = <-httpErr:
	}
	if err != nil {
		logger.Errorf("server stopped: %v", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("admin api shutdown: %v", err)
	}

	// Connection handlers must be gone before the engine closes.
	if !tcpDone {
		<-tcpErr
	}

	logger.Info("shut down")
	return err
}
