package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
)

// FromConfig builds the knowledge base named by cfg.Source. The catalog is
// only consulted for the database source; an empty catalog is seeded with
// the built-in tables first.
func FromConfig(ctx context.Context, cfg domain.KnowledgeBaseConfig, catalog *Catalog, logger *logrus.Logger) (*KnowledgeBase, error) {
	var def Definition

	switch cfg.Source {
	case domain.KnowledgeSourceBuiltin, "":
		return Default(), nil

	case domain.KnowledgeSourceYAML:
		loaded, err := LoadYAMLFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		def = loaded

	case domain.KnowledgeSourceDatabase:
		if catalog == nil {
			return nil, fmt.Errorf("knowledge source %q requires a database", cfg.Source)
		}
		loaded, err := catalog.Load(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Knowledge-base catalog is empty, seeding built-in tables")
			if err := catalog.Seed(ctx, DefaultDefinition()); err != nil {
				return nil, err
			}
			loaded, err = catalog.Load(ctx)
		}
		if err != nil {
			return nil, err
		}
		def = loaded

	default:
		return nil, fmt.Errorf("unknown knowledge source: %q", cfg.Source)
	}

	kb, err := New(def)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"source": cfg.Source,
		"drugs":  len(kb.SupportedDrugs()),
		"genes":  len(kb.SupportedGenes()),
	}).Info("Knowledge base loaded")

	return kb, nil
}
