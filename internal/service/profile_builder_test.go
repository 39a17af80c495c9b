package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
	"github.com/pharmaguard-engine/pkg/vcf"
)

func TestProfileBuilder_NonMarkerVariant(t *testing.T) {
	records := vcf.NewParser().Parse("chr22 42526694 rs16947 C T 99 PASS GENE=CYP2D6 GT:DP 0/1:30\n")
	builder := NewProfileBuilder(knowledge.Default(), testLogger())

	profile, err := builder.Build(records, "CODEINE")

	require.NoError(t, err)
	assert.Equal(t, &domain.PharmaProfile{
		PrimaryGene:      "CYP2D6",
		Diplotype:        "*1/*1",
		Phenotype:        domain.PhenotypeNormal,
		DetectedVariants: []domain.DetectedVariant{{RSID: "rs16947", Gene: "CYP2D6"}},
		Confidence:       0.64,
		CPICEvidence:     domain.EvidenceA,
		RiskLevel:        domain.RiskLow,
	}, profile)
}

func TestProfileBuilder_PoorMetabolizer(t *testing.T) {
	content := "chr22 42526694 rs3892097 C T 99 PASS GENE=CYP2D6 GT 1/1\n" +
		"chr22 42522613 rs1065852 G A 99 PASS GENE=CYP2D6 GT 0/1\n"
	records := vcf.NewParser().Parse(content)
	builder := NewProfileBuilder(knowledge.Default(), testLogger())

	profile, err := builder.Build(records, "codeine")

	require.NoError(t, err)
	assert.Equal(t, "CYP2D6", profile.PrimaryGene)
	assert.Equal(t, "*4/*10", profile.Diplotype)
	assert.Equal(t, domain.PhenotypePoor, profile.Phenotype)
	assert.Equal(t, 0.925, profile.Confidence)
	assert.Equal(t, domain.RiskHigh, profile.RiskLevel)
	assert.Len(t, profile.DetectedVariants, 2)

	inference := builder.Engine().Infer(records, "CYP2D6")
	assert.Equal(t, []string{"*4", "*10"}, inference.Alleles)
	assert.InDelta(t, 0.925, inference.GenotypeConfidence, 1e-9)
}

func TestProfileBuilder_UnsupportedDrug(t *testing.T) {
	builder := NewProfileBuilder(knowledge.Default(), testLogger())
	inputs := [][]domain.VariantRecord{
		nil,
		{record("rs3892097", "CYP2D6", "1/1")},
	}

	for _, records := range inputs {
		profile, err := builder.Build(records, "aspirin")

		assert.Nil(t, profile)
		assert.True(t, errors.Is(err, domain.ErrUnsupportedDrug))
	}
}

func TestProfileBuilder_DetectedVariantsCoverEveryRecord(t *testing.T) {
	records := []domain.VariantRecord{
		record("rs4244285", "CYP2C19", "0/1"),
		record("rs3892097", "CYP2D6", "1/1"),
		record("rs999", "CYP2C19", "1/1"),
	}
	builder := NewProfileBuilder(knowledge.Default(), testLogger())

	profile, err := builder.Build(records, "Clopidogrel")

	require.NoError(t, err)
	assert.Equal(t, []domain.DetectedVariant{
		{RSID: "rs4244285", Gene: "CYP2C19"},
		{RSID: "rs3892097", Gene: "CYP2D6"},
		{RSID: "rs999", Gene: "CYP2C19"},
	}, profile.DetectedVariants)
	assert.Equal(t, "*1/*2", profile.Diplotype)
	assert.Equal(t, 0.765, profile.Confidence)
	assert.Equal(t, domain.RiskModerate, profile.RiskLevel)
}

func TestProfileBuilder_EmptyInputDegradesToWildType(t *testing.T) {
	builder := NewProfileBuilder(knowledge.Default(), testLogger())

	for _, drug := range knowledge.Default().SupportedDrugs() {
		profile, err := builder.Build(nil, drug)

		require.NoError(t, err)
		assert.Equal(t, "*1/*1", profile.Diplotype)
		assert.Equal(t, domain.PhenotypeNormal, profile.Phenotype)
		assert.Equal(t, 0.64, profile.Confidence)
		assert.NotNil(t, profile.DetectedVariants)
		assert.Empty(t, profile.DetectedVariants)
	}
}

func TestProfileBuilder_ConfidenceIsProductOfWeights(t *testing.T) {
	def := knowledge.DefaultDefinition()
	def.Drugs["TRAMADOL"] = knowledge.DrugRule{Gene: "CYP2D6", Evidence: domain.EvidenceC}
	def.Drugs["ONDANSETRON"] = knowledge.DrugRule{Gene: "CYP2D6", Evidence: domain.EvidenceD}
	kb, err := knowledge.New(def)
	require.NoError(t, err)
	builder := NewProfileBuilder(kb, testLogger())

	inputs := [][]domain.VariantRecord{
		nil,
		{record("rs3892097", "CYP2D6", "0/1")},
		{record("rs3892097", "CYP2D6", "1/1")},
		{record("rs3892097", "CYP2D6", "1/1"), record("rs5030655", "CYP2D6", "1/1")},
		{record("rs3892097", "CYP2D6", "./."), record("rs5030655", "CYP2D6", "0|1")},
	}

	for _, drug := range []string{"CODEINE", "TRAMADOL", "ONDANSETRON"} {
		rule, err := kb.DrugRule(drug)
		require.NoError(t, err)

		for _, records := range inputs {
			profile, err := builder.Build(records, drug)
			require.NoError(t, err)

			inference := builder.Engine().Infer(records, "CYP2D6")
			evidence := kb.EvidenceWeight(rule.Evidence)
			phenotype := kb.PhenotypeWeight(inference.Phenotype)
			expected := evidence * inference.GenotypeConfidence * phenotype

			assert.Equal(t, confidence(evidence, inference.GenotypeConfidence, phenotype), profile.Confidence, "%s %v", drug, records)
			// rounding moves the product by at most half a thousandth
			assert.InDelta(t, expected, profile.Confidence, 0.0005+1e-9, "%s %v", drug, records)
			assert.GreaterOrEqual(t, profile.Confidence, 0.0)
			assert.LessOrEqual(t, profile.Confidence, 1.0)
			assert.Equal(t, rule.Evidence, profile.CPICEvidence)
			assert.Equal(t, domain.RiskFromPhenotype(profile.Phenotype), profile.RiskLevel)
		}
	}
}

func TestConfidence_Rounding(t *testing.T) {
	tests := []struct {
		evidence, genotype, phenotype float64
		expected                      float64
	}{
		{1.0, 0.8, 0.8, 0.64},
		{1.0, 0.925, 1.0, 0.925},
		{1.0, 0.85, 0.9, 0.765},
		{0.2, 0.5, 0.9, 0.09},
		{0.5, 0.85, 0.9, 0.383},
		{0.8, 0.9166666666, 1.0, 0.733},
		{1.0, 0.75, 0.85, 0.637},
		{0.25, 0.25, 1.0, 0.063},
		{0.5, 0.625, 1.0, 0.313},
		{1.0, 0.5, 0.375, 0.188},
		{0, 0.85, 0.9, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, confidence(tt.evidence, tt.genotype, tt.phenotype))
	}
}
