package domain

// Phenotype is a metabolizer status
type Phenotype string

const (
	PhenotypePoor         Phenotype = "PM"
	PhenotypeIntermediate Phenotype = "IM"
	PhenotypeNormal       Phenotype = "NM"
	PhenotypeRapid        Phenotype = "RM"
	PhenotypeUltraRapid   Phenotype = "URM"
)

// RiskLevel is the categorical risk derived from a phenotype
type RiskLevel string

const (
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// EvidenceLevel is a CPIC evidence grade
type EvidenceLevel string

const (
	EvidenceA EvidenceLevel = "A"
	EvidenceB EvidenceLevel = "B"
	EvidenceC EvidenceLevel = "C"
	EvidenceD EvidenceLevel = "D"
)

// Wild-type defaults used when a gene has no qualifying marker variant.
const (
	WildTypeAllele            = "*1"
	WildTypeDiplotype         = "*1/*1"
	DefaultGenotypeConfidence = 0.8
	DefaultPhenotype          = PhenotypeNormal
)

// RiskFromPhenotype maps a phenotype to its risk level
func RiskFromPhenotype(p Phenotype) RiskLevel {
	switch p {
	case PhenotypePoor:
		return RiskHigh
	case PhenotypeIntermediate:
		return RiskModerate
	case PhenotypeNormal:
		return RiskLow
	default:
		return RiskUnknown
	}
}

// GeneInferenceResult holds the star-allele inference for one gene
type GeneInferenceResult struct {
	Gene               string    `json:"gene"`
	Alleles            []string  `json:"alleles"`
	Phenotype          Phenotype `json:"phenotype"`
	GenotypeConfidence float64   `json:"genotype_confidence"`
	Diplotype          string    `json:"diplotype"`
}

// DefaultInferenceResult is the wild-type result for a gene with no markers
func DefaultInferenceResult(gene string) GeneInferenceResult {
	return GeneInferenceResult{
		Gene:               gene,
		Alleles:            []string{},
		Phenotype:          DefaultPhenotype,
		GenotypeConfidence: DefaultGenotypeConfidence,
		Diplotype:          WildTypeDiplotype,
	}
}

// PharmaProfile is the pharmacogenomic profile for one drug
type PharmaProfile struct {
	PrimaryGene      string            `json:"primary_gene"`
	Diplotype        string            `json:"diplotype"`
	Phenotype        Phenotype         `json:"phenotype"`
	DetectedVariants []DetectedVariant `json:"detected_variants"`
	Confidence       float64           `json:"confidence"`
	CPICEvidence     EvidenceLevel     `json:"cpic_evidence"`
	RiskLevel        RiskLevel         `json:"risk_level"`
}
