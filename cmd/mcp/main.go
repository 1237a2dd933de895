package main

import (
	"context"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/insurance-clause-qa/internal/adapters/mcp"
	"github.com/kirillkom/insurance-clause-qa/internal/bootstrap"
	"github.com/kirillkom/insurance-clause-qa/internal/config"
	"github.com/kirillkom/insurance-clause-qa/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the protocol, so logs go to stderr.
	logging.Setup(os.Stderr, "insurance-mcp", cfg.LogLevel, "json")

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	tools := mcpadapter.Tools{
		Answerer:   app.QueryUC,
		Classifier: app.Classifier,
	}
	if app.Evaluations != nil {
		tools.Evaluations = app.Evaluations
	}
	if err := mcpserver.ServeStdio(mcpadapter.NewServer(tools)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
