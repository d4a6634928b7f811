package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/docshelf/internal/adapters/mcp"
	"github.com/kirillkom/docshelf/internal/bootstrap"
	"github.com/kirillkom/docshelf/internal/config"
	"github.com/kirillkom/docshelf/internal/core/ports"
	"github.com/kirillkom/docshelf/internal/observability/logging"
)

const (
	serviceName = "docshelf-mcp"
	version     = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol; everything else goes to stderr.
	logger := logging.NewJSONLogger(os.Stderr, serviceName, cfg.LogLevel)
	app, err := bootstrap.New(ctx, cfg, serviceName, logger, bootstrap.UploadHooks{})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	tools := mcpadapter.NewTools(app.Registry, func(platform string) ports.PDFViewer {
		return app.ViewerFor(platform)
	}, logger)

	logger.Info("mcp_server_started", "api_base_url", cfg.APIBaseURL)
	if err := server.ServeStdio(mcpadapter.NewServer(tools, version)); err != nil {
		logger.Error("mcp_server_stopped", "error", err)
	}
}
