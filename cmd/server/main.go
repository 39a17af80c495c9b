package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/pharmaguard-engine/internal/api"
	"github.com/pharmaguard-engine/internal/app"
	"github.com/pharmaguard-engine/internal/config"
	"github.com/pharmaguard-engine/internal/logging"
)

func main() {
	flags := pflag.NewFlagSet("pharmaguard-server", pflag.ExitOnError)
	configFile := flags.String("config", "", "path to config.yaml")
	flags.Int("server.port", 8080, "HTTP listen port")
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
	logger := logging.New(cfg.Logging)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	var opts []api.ServerOption
	for name, check := range application.HealthChecks() {
		opts = append(opts, api.WithHealthCheck(name, check))
	}

	logger.WithFields(logrus.Fields{
		"host":             cfg.Server.Host,
		"port":             cfg.Server.Port,
		"knowledge_source": cfg.KnowledgeBase.Source,
	}).Info("Starting PharmaGuard API server")

	server := api.NewServer(configManager, application.Analysis, logger, opts...)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
