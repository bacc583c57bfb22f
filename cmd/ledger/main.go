package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"wisevault/internal/api"
	"wisevault/internal/config"
	"wisevault/internal/ledger"
	"wisevault/internal/service"
	"wisevault/internal/users"
	"wisevault/pkg/crypto"
	"wisevault/pkg/metrics"
)

const appName = "wisevault"

func main() {
	logger := setupLogger()
	logger.Info("Starting application", slog.String("name", appName))

	cfg := config.Load()

	userStore, err := users.Open(cfg.UsersDBPath, logger)
	if err != nil {
		logger.Error("User store initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer userStore.Close()

	if err := userStore.EnsureManager(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error("Manager seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metricsCollector := metrics.NewMetricsCollector(logger)
	directory := ledger.NewLedgerDirectory(logger)
	transfers := ledger.NewTransferOperations(directory, logger)
	notifier := service.NewNotificationService(service.MockEmailService{}, service.MockSMSService{}, 3, logger)

	var signer *crypto.Signer
	if cfg.SigningSecret != "" {
		signer = crypto.NewSigner(cfg.SigningSecret, logger)
	}

	apiHandler := api.NewAPIHandler(directory, transfers, userStore, metricsCollector, signer, notifier, logger)

	metricsServer := metricsCollector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(cfg.HTTPAddr, apiHandler, logger)

	waitForShutdown(logger, httpServer, metricsServer, metricsCollector, notifier)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func startHTTPServer(addr string, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	router := mux.NewRouter()
	apiHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	metricsCollector *metrics.MetricsCollector,
	notifier *service.NotificationService,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
	}
	if err := notifier.Shutdown(ctx); err != nil {
		logger.Error("Notification service shutdown failed", slog.String("error", err.Error()))
	}
}
