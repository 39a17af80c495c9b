package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/pharmaguard-engine/internal/app"
	"github.com/pharmaguard-engine/internal/config"
	"github.com/pharmaguard-engine/internal/logging"
	"github.com/pharmaguard-engine/internal/mcp"
)

func main() {
	flags := pflag.NewFlagSet("pharmaguard-mcp-server", pflag.ExitOnError)
	configFile := flags.String("config", "", "path to config.yaml")
	flags.String("logging.level", "info", "log level")
	_ = flags.Parse(os.Args[1:])

	// Load configuration
	configManager, err := config.NewManager(config.WithConfigFile(*configFile), config.WithFlags(flags))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	// stdout carries the MCP protocol
	cfg.Logging.Output = "stderr"
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	server := mcp.NewServer(cfg.MCP, application.Analysis, logger)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("PharmaGuard MCP server stopped")
}
