package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/command"
	"github.com/MarcoPoloResearchLab/ost/internal/config"
	"github.com/MarcoPoloResearchLab/ost/internal/logging"
	"github.com/MarcoPoloResearchLab/ost/internal/server"
)

const shutdownTimeout = 10 * time.Second

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := openBackend(ctx, appConfig, logger)
	if err != nil {
		logger.Error("failed to open context backend", zap.String("backend", string(appConfig.Backend)), zap.Error(err))
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Warn("failed to close context backend", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := command.NewMetrics(registry)
	if err != nil {
		return err
	}

	changes := server.NewChangeFeed()
	dispatcher, err := command.NewDispatcher(command.DispatcherConfig{
		Context:  store.context,
		Seeder:   store.seeder,
		Notifier: changes,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	queue := command.NewQueue()
	dispatcherDone := make(chan struct{})
	go func() {
		dispatcher.Run(queue)
		close(dispatcherDone)
	}()

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Queue:          queue,
		Changes:        changes,
		Gatherer:       registry,
		AllowedOrigins: appConfig.AllowedOrigins,
		RequestTimeout: appConfig.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		close(queue)
		<-dispatcherDone
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	httpServer.RegisterOnShutdown(changes.Close)

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress), zap.String("backend", string(appConfig.Backend)))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			// Handlers may still submit, so the queue stays open.
			logger.Warn("http shutdown incomplete", zap.Error(err))
			return err
		}
	case err := <-errCh:
		runErr = err
	}

	close(queue)
	<-dispatcherDone
	logger.Info("server stopped")
	return runErr
}
