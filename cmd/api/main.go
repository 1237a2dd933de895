package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/insurance-clause-qa/internal/adapters/http"
	"github.com/kirillkom/insurance-clause-qa/internal/bootstrap"
	"github.com/kirillkom/insurance-clause-qa/internal/config"
	"github.com/kirillkom/insurance-clause-qa/internal/observability/logging"
	"github.com/kirillkom/insurance-clause-qa/internal/observability/metrics"
)

const serviceName = "insurance-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		WithRegistry:       true,
		ResilienceObserver: httpMetrics,
		QueryObserver:      httpMetrics,
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	services := httpadapter.Services{
		Answerer:   app.QueryUC,
		Classifier: app.Classifier,
		Metrics:    httpMetrics,
		Health:     app.Executor,
	}
	// Optional components stay nil interfaces so the router answers 501.
	if app.IngestUC != nil {
		services.Ingestor = app.IngestUC
	}
	if app.Repo != nil {
		services.Documents = app.Repo
	}
	if app.Evaluations != nil {
		services.Evaluations = app.Evaluations
	}
	router := httpadapter.NewRouter(cfg, services).Handler()

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		slog.Error("api_listen_failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.APIRequestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api_shutdown_failed", "error", err)
	}
}
