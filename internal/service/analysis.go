package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pharmaguard-engine/internal/cache"
	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
)

const patientIDPrefix = "PATIENT_"

// AnalyzeRequest is one VCF body analyzed against one or more drugs
type AnalyzeRequest struct {
	VCF   string
	Drugs []string
}

// parsedVCF is a VCF body together with what the parser made of it
type parsedVCF struct {
	content string
	records []domain.VariantRecord
	stats   domain.ParseStats
}

// AnalysisService parses a VCF once and builds a risk-annotated profile for
// each requested drug
type AnalysisService struct {
	kb        *knowledge.KnowledgeBase
	parser    domain.VariantParser
	builder   domain.ProfileBuilder
	explainer domain.Explainer
	cache     domain.ProfileCache
	config    domain.AnalysisConfig
	logger    *logrus.Logger

	now       func() time.Time
	patientID func() string
}

// Option customizes an AnalysisService
type Option func(*AnalysisService)

// WithCache enables profile caching
func WithCache(c domain.ProfileCache) Option {
	return func(s *AnalysisService) { s.cache = c }
}

// WithExplainer replaces the template explainer
func WithExplainer(e domain.Explainer) Option {
	return func(s *AnalysisService) { s.explainer = e }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *AnalysisService) { s.now = now }
}

// WithPatientIDGenerator overrides patient id generation
func WithPatientIDGenerator(gen func() string) Option {
	return func(s *AnalysisService) { s.patientID = gen }
}

// NewAnalysisService wires the analysis pipeline
func NewAnalysisService(
	kb *knowledge.KnowledgeBase,
	parser domain.VariantParser,
	cfg domain.AnalysisConfig,
	logger *logrus.Logger,
	opts ...Option,
) *AnalysisService {
	s := &AnalysisService{
		kb:        kb,
		parser:    parser,
		builder:   NewProfileBuilder(kb, logger),
		explainer: NewTemplateExplainer(),
		config:    cfg,
		logger:    logger,
		now:       time.Now,
		patientID: NewPatientID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPatientID returns an anonymous identifier such as PATIENT_3F9A1C
func NewPatientID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return patientIDPrefix + strings.ToUpper(id[:6])
}

// KnowledgeBase returns the tables the service analyzes against
func (s *AnalysisService) KnowledgeBase() *knowledge.KnowledgeBase {
	return s.kb
}

// ParseVariants parses VCF content without building profiles
func (s *AnalysisService) ParseVariants(content string) ([]domain.VariantRecord, domain.ParseStats) {
	return s.parser.ParseWithStats(content)
}

// BuildProfile builds a single drug profile. Unlike Analyze it accepts
// content with no usable variants and returns the wild-type profile.
func (s *AnalysisService) BuildProfile(ctx context.Context, content, drug string) (*domain.PharmaProfile, error) {
	records := s.parser.Parse(content)
	profile, _, err := s.profile(ctx, content, records, drug)
	return profile, err
}

// Analyze validates the request, parses the VCF and builds one result per
// drug. Content without any usable variant is rejected with
// domain.ErrNoUsableVariants.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisReport, error) {
	start := time.Now()

	drugs, err := ValidateDrugs(req.Drugs, s.kb, s.config.MaxDrugsPerRequest)
	if err != nil {
		return nil, err
	}

	records, stats := s.parser.ParseWithStats(req.VCF)
	return s.run(ctx, start, drugs, parsedVCF{content: req.VCF, records: records, stats: stats})
}

// AnalyzeReader is Analyze for a VCF streamed from r
func (s *AnalysisService) AnalyzeReader(ctx context.Context, r io.Reader, drugs []string) (*domain.AnalysisReport, error) {
	start := time.Now()

	drugs, err := ValidateDrugs(drugs, s.kb, s.config.MaxDrugsPerRequest)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	records, stats, err := s.parser.ParseReader(io.TeeReader(r, &content))
	if err != nil {
		return nil, fmt.Errorf("reading VCF: %w", err)
	}
	return s.run(ctx, start, drugs, parsedVCF{content: content.String(), records: records, stats: stats})
}

func (s *AnalysisService) run(ctx context.Context, start time.Time, drugs []string, input parsedVCF) (*domain.AnalysisReport, error) {
	if len(input.records) == 0 {
		return nil, fmt.Errorf("analyzing %d drug(s), %d data line(s) dropped: %w",
			len(drugs), input.stats.Dropped(), domain.ErrNoUsableVariants)
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	patientID := s.patientID()
	results := make([]*domain.AnalysisResult, len(drugs))

	g, gctx := errgroup.WithContext(ctx)
	if s.config.Concurrency > 0 {
		g.SetLimit(s.config.Concurrency)
	}

	for i, drug := range drugs {
		g.Go(func() error {
			result, err := s.analyzeDrug(gctx, patientID, input, drug)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", drug, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.AnalysisReport{
		PatientID:        patientID,
		VariantsAnalyzed: len(input.records),
		Results:          results,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	s.logger.WithFields(logrus.Fields{
		"patient_id":         patientID,
		"drugs":              drugs,
		"variants_analyzed":  len(input.records),
		"lines_dropped":      input.stats.Dropped(),
		"processing_time_ms": report.ProcessingTimeMs,
	}).Info("Analysis completed")

	return report, nil
}

func (s *AnalysisService) analyzeDrug(ctx context.Context, patientID string, input parsedVCF, drug string) (*domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, cacheHit, err := s.profile(ctx, input.content, input.records, drug)
	if err != nil {
		return nil, err
	}

	assessment := AssessRisk(drug, profile)
	explanation := s.explain(ctx, drug, profile, assessment)

	return &domain.AnalysisResult{
		PatientID:              patientID,
		Drug:                   drug,
		Timestamp:              s.now().UTC(),
		RiskAssessment:         assessment,
		Profile:                *profile,
		ClinicalRecommendation: domain.ClinicalRecommendation{Note: ClinicalNote},
		Explanation:            explanation,
		QualityMetrics: domain.QualityMetrics{
			VCFParsingSuccess: true,
			VariantsAnalyzed:  len(input.records),
			MarkerVariants:    s.markerVariants(input.records, profile.PrimaryGene),
			SupportedDrug:     true,
			SupportedGene:     s.kb.HasGene(profile.PrimaryGene),
			CacheHit:          cacheHit,
			Parsing:           input.stats,
		},
	}, nil
}

// profile builds or fetches the profile for drug
func (s *AnalysisService) profile(ctx context.Context, content string, records []domain.VariantRecord, drug string) (*domain.PharmaProfile, bool, error) {
	if s.cache == nil {
		profile, err := s.builder.Build(records, drug)
		return profile, false, err
	}

	key := cache.Key(s.kb.Fingerprint(), content, drug)
	if profile, ok := s.cache.Get(ctx, key); ok {
		return profile, true, nil
	}

	profile, err := s.builder.Build(records, drug)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, profile)
	return profile, false, nil
}

// explain falls back to the template when the explainer fails
func (s *AnalysisService) explain(ctx context.Context, drug string, profile *domain.PharmaProfile, assessment domain.RiskAssessment) domain.Explanation {
	explanation, err := s.explainer.Explain(ctx, drug, profile, assessment)
	if err == nil {
		return explanation
	}

	reason := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "explanation timed out"
	}
	s.logger.WithError(err).WithField("drug", drug).Warn("Explainer failed, using fallback explanation")
	return FallbackExplanation(drug, profile, reason)
}

// markerVariants counts records that hit gene's marker table
func (s *AnalysisService) markerVariants(records []domain.VariantRecord, gene string) int {
	count := 0
	for _, record := range records {
		if record.Gene != gene {
			continue
		}
		if _, ok := s.kb.Allele(gene, record.RSID); ok {
			count++
		}
	}
	return count
}
