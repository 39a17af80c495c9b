package service

import (
	"context"
	"fmt"

	"github.com/pharmaguard-engine/internal/domain"
)

// ProviderFallback names the built-in template explainer
const ProviderFallback = "fallback"

// TemplateExplainer renders a fixed, deterministic explanation
type TemplateExplainer struct{}

// NewTemplateExplainer creates the built-in explainer
func NewTemplateExplainer() *TemplateExplainer {
	return &TemplateExplainer{}
}

// Explain never fails
func (TemplateExplainer) Explain(_ context.Context, drug string, profile *domain.PharmaProfile, _ domain.RiskAssessment) (domain.Explanation, error) {
	return FallbackExplanation(drug, profile, ""), nil
}

// FallbackExplanation is the template summary. reason records why a richer
// explanation was not produced, if any.
func FallbackExplanation(drug string, profile *domain.PharmaProfile, reason string) domain.Explanation {
	return domain.Explanation{
		Summary: fmt.Sprintf(
			"%s %s phenotype may affect response to %s. Dose adjustment or alternative therapy may be needed.",
			profile.PrimaryGene, profile.Phenotype, drug,
		),
		Provider: ProviderFallback,
		Reason:   reason,
	}
}
