package domain

import (
	"context"
	"io"
)

// VariantParser turns VCF text into variant records. Malformed lines are
// counted in ParseStats rather than reported as errors.
type VariantParser interface {
	Parse(content string) []VariantRecord
	ParseWithStats(content string) ([]VariantRecord, ParseStats)
	ParseReader(r io.Reader) ([]VariantRecord, ParseStats, error)
}

// ProfileBuilder builds the pharmacogenomic profile for a drug
type ProfileBuilder interface {
	Build(records []VariantRecord, drug string) (*PharmaProfile, error)
}

// Explainer produces a natural-language explanation for a profile.
// Implementations backed by remote services must degrade to a usable
// explanation instead of failing the analysis.
type Explainer interface {
	Explain(ctx context.Context, drug string, profile *PharmaProfile, assessment RiskAssessment) (Explanation, error)
}

// ProfileCache stores built profiles keyed by input content and drug.
// Cache failures are reported as misses.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*PharmaProfile, bool)
	Set(ctx context.Context, key string, profile *PharmaProfile)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetCacheConfig() *CacheConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
