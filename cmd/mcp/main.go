package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/notes-transformer/internal/adapters/mcp"
	"github.com/kirillkom/notes-transformer/internal/bootstrap"
	"github.com/kirillkom/notes-transformer/internal/config"
	"github.com/kirillkom/notes-transformer/internal/observability/logging"
)

const (
	serviceName = "mcp"
	version     = "0.1.0"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := bootstrap.New(cfg, serviceName)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	s := mcpadapter.NewServer("notes-transformer", version, app.Transformer)
	logger.Info("mcp_stdio_started", "provider", cfg.LLMProvider, "text_model", cfg.TextModel)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_error", "error", err)
		os.Exit(1)
	}
}
