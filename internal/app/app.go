// Package app wires configuration, storage, caching and the analysis
// service into one object shared by the server, MCP and CLI binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/cache"
	"github.com/pharmaguard-engine/internal/database"
	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
	"github.com/pharmaguard-engine/internal/service"
	"github.com/pharmaguard-engine/pkg/vcf"
)

// App holds the long-lived dependencies of a running binary
type App struct {
	Config   *domain.Config
	Logger   *logrus.Logger
	DB       *database.DB
	Catalog  *knowledge.Catalog
	Cache    *cache.Tiered
	Analysis *service.AnalysisService
}

// New builds the application. The catalog database is only opened when the
// knowledge base is read from it.
func New(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if cfg.KnowledgeBase.Source == domain.KnowledgeSourceDatabase {
		if err := a.OpenCatalog(ctx); err != nil {
			return nil, err
		}
	}

	kb, err := knowledge.FromConfig(ctx, cfg.KnowledgeBase, a.Catalog, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	var opts []service.Option
	if tiered := cache.FromConfig(ctx, cfg.Cache, logger); tiered != nil {
		a.Cache = tiered
		opts = append(opts, service.WithCache(tiered))
	}

	a.Analysis = service.NewAnalysisService(kb, vcf.NewParser(), cfg.Analysis, logger, opts...)
	return a, nil
}

// OpenCatalog connects to the catalog database if it is not open yet
func (a *App) OpenCatalog(ctx context.Context) error {
	if a.Catalog != nil {
		return nil
	}

	db, err := database.Open(ctx, a.Config.Database, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}

	dialect := knowledge.DialectSQLite
	if db.Driver == database.DriverPostgres {
		dialect = knowledge.DialectPostgres
	}

	catalog, err := knowledge.NewCatalog(db.SQL, dialect, a.Logger)
	if err != nil {
		db.Close()
		return err
	}

	a.DB = db
	a.Catalog = catalog
	return nil
}

// HealthChecks returns the named dependency checks for this configuration
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if a.DB != nil {
		checks["database"] = a.DB.Health
	}
	if a.Cache != nil {
		checks["cache"] = a.Cache.Ping
	}
	return checks
}

// Close releases the cache and database connections
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return errors.Join(errs...)
}
