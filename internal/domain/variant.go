// Package domain holds the pharmacogenomic entities, errors, configuration
// and collaborator interfaces shared by the engine.
package domain

// VariantRecord is a single genotyped observation read from a VCF data line.
type VariantRecord struct {
	RSID       string `json:"rsid"`
	Gene       string `json:"gene"`
	Genotype   string `json:"genotype"`
	Chromosome string `json:"chromosome"`
	Position   string `json:"position"`
}

// DetectedVariant is the (rsid, gene) pair reported back in a profile
type DetectedVariant struct {
	RSID string `json:"rsid"`
	Gene string `json:"gene"`
}

// Detected returns the display pair for the record
func (v VariantRecord) Detected() DetectedVariant {
	return DetectedVariant{RSID: v.RSID, Gene: v.Gene}
}

// ParseStats counts what happened to each data line of a VCF body
type ParseStats struct {
	DataLines       int `json:"data_lines"`
	Retained        int `json:"retained"`
	ShortRows       int `json:"short_rows"`
	InvalidIDs      int `json:"invalid_ids"`
	MissingGene     int `json:"missing_gene"`
	MissingGenotype int `json:"missing_genotype"`
}

// Dropped returns the number of data lines that produced no record
func (s ParseStats) Dropped() int {
	return s.DataLines - s.Retained
}

// Zygosity classifies a GT token
type Zygosity string

const (
	ZygosityHomozygousReference Zygosity = "HOMOZYGOUS_REFERENCE"
	ZygosityHeterozygous        Zygosity = "HETEROZYGOUS"
	ZygosityHomozygousAlternate Zygosity = "HOMOZYGOUS_ALTERNATE"
	ZygosityUnknown             Zygosity = "UNKNOWN"
)

// ClassifyGenotype maps an allele-index pair to its zygosity. Both the
// unphased (/) and phased (|) separators are accepted. Anything that is not
// a biallelic 0/1 call, including an empty token, is ZygosityUnknown.
func ClassifyGenotype(gt string) Zygosity {
	switch gt {
	case "0/0", "0|0":
		return ZygosityHomozygousReference
	case "0/1", "1/0", "0|1", "1|0":
		return ZygosityHeterozygous
	case "1/1", "1|1":
		return ZygosityHomozygousAlternate
	default:
		return ZygosityUnknown
	}
}

// IsWildType reports whether the genotype is a homozygous reference call
func IsWildType(gt string) bool {
	return ClassifyGenotype(gt) == ZygosityHomozygousReference
}
