package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
)

const confidencePrecision = 3

// ProfileBuilder turns variant records into a drug-specific PharmaProfile
type ProfileBuilder struct {
	kb     *knowledge.KnowledgeBase
	engine *InferenceEngine
	logger *logrus.Logger
}

// NewProfileBuilder creates a profile builder over kb
func NewProfileBuilder(kb *knowledge.KnowledgeBase, logger *logrus.Logger) *ProfileBuilder {
	return &ProfileBuilder{
		kb:     kb,
		engine: NewInferenceEngine(kb, logger),
		logger: logger,
	}
}

// Build builds the profile for drug. The only error is an unsupported drug,
// which unwraps to domain.ErrUnsupportedDrug.
func (b *ProfileBuilder) Build(records []domain.VariantRecord, drug string) (*domain.PharmaProfile, error) {
	rule, err := b.kb.DrugRule(strings.ToUpper(drug))
	if err != nil {
		return nil, err
	}

	inference := b.engine.Infer(records, rule.Gene)

	detected := make([]domain.DetectedVariant, 0, len(records))
	for _, record := range records {
		detected = append(detected, record.Detected())
	}

	profile := &domain.PharmaProfile{
		PrimaryGene:      rule.Gene,
		Diplotype:        inference.Diplotype,
		Phenotype:        inference.Phenotype,
		DetectedVariants: detected,
		Confidence: confidence(
			b.kb.EvidenceWeight(rule.Evidence),
			inference.GenotypeConfidence,
			b.kb.PhenotypeWeight(inference.Phenotype),
		),
		CPICEvidence: rule.Evidence,
		RiskLevel:    domain.RiskFromPhenotype(inference.Phenotype),
	}

	b.logger.WithFields(logrus.Fields{
		"drug":       rule.Drug,
		"gene":       profile.PrimaryGene,
		"diplotype":  profile.Diplotype,
		"phenotype":  profile.Phenotype,
		"confidence": profile.Confidence,
	}).Debug("Built pharmacogenomic profile")

	return profile, nil
}

// Engine exposes the inference engine used by the builder
func (b *ProfileBuilder) Engine() *InferenceEngine {
	return b.engine
}

// confidence multiplies the factors and rounds the exact binary product to
// three decimals, with ties going away from zero.
func confidence(evidence, genotype, phenotype float64) float64 {
	x := evidence * genotype * phenotype
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}

	// Only odd multiples of 1/16 sit exactly on a half-thousandth.
	// FormatFloat would round those to even.
	if scaled := x * 16; scaled == math.Trunc(scaled) && math.Mod(scaled, 2) != 0 {
		x = math.Nextafter(x, math.Copysign(math.Inf(1), x))
	}

	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', confidencePrecision, 64), 64)
	if err != nil {
		return 0
	}
	return rounded
}
