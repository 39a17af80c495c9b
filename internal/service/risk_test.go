package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-engine/internal/domain"
)

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		drug      string
		phenotype domain.Phenotype
		label     string
		severity  domain.Severity
	}{
		{"CLOPIDOGREL", domain.PhenotypePoor, RiskLabelIneffective, domain.SeverityHigh},
		{"AZATHIOPRINE", domain.PhenotypePoor, RiskLabelToxic, domain.SeverityHigh},
		{"fluorouracil", domain.PhenotypePoor, RiskLabelToxic, domain.SeverityHigh},
		{"CODEINE", domain.PhenotypePoor, RiskLabelAdjustDosage, domain.SeverityHigh},
		{"WARFARIN", domain.PhenotypeIntermediate, RiskLabelAdjustDosage, domain.SeverityModerate},
		{"CLOPIDOGREL", domain.PhenotypeIntermediate, RiskLabelAdjustDosage, domain.SeverityModerate},
		{"SIMVASTATIN", domain.PhenotypeNormal, RiskLabelSafe, domain.SeverityLow},
		{"CODEINE", domain.PhenotypeRapid, RiskLabelMonitor, domain.SeverityModerate},
		{"CODEINE", domain.PhenotypeUltraRapid, RiskLabelAdjustDosage, domain.SeverityModerate},
		{"CODEINE", domain.Phenotype(" pm "), RiskLabelAdjustDosage, domain.SeverityHigh},
		{"CODEINE", domain.Phenotype("EM"), RiskLabelUnknown, domain.SeverityNone},
	}

	for _, tt := range tests {
		t.Run(tt.drug+"/"+string(tt.phenotype), func(t *testing.T) {
			profile := &domain.PharmaProfile{Phenotype: tt.phenotype, Confidence: 0.925}

			assessment := AssessRisk(tt.drug, profile)

			assert.Equal(t, tt.label, assessment.RiskLabel)
			assert.Equal(t, tt.severity, assessment.Severity)
			assert.Equal(t, 0.925, assessment.ConfidenceScore)
		})
	}
}

func TestTemplateExplainer(t *testing.T) {
	profile := &domain.PharmaProfile{PrimaryGene: "CYP2C19", Phenotype: domain.PhenotypePoor}

	explanation, err := NewTemplateExplainer().Explain(context.Background(), "CLOPIDOGREL", profile, domain.RiskAssessment{})

	require.NoError(t, err)
	assert.Equal(t,
		"CYP2C19 PM phenotype may affect response to CLOPIDOGREL. Dose adjustment or alternative therapy may be needed.",
		explanation.Summary)
	assert.Equal(t, ProviderFallback, explanation.Provider)
	assert.Empty(t, explanation.Reason)
}
