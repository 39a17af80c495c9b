package knowledge

import "github.com/pharmaguard-engine/internal/domain"

// DefaultDefinition returns a fresh copy of the built-in tables
func DefaultDefinition() Definition {
	return Definition{
		EvidenceWeights: map[domain.EvidenceLevel]float64{
			domain.EvidenceA: 1.0,
			domain.EvidenceB: 0.8,
			domain.EvidenceC: 0.5,
			domain.EvidenceD: 0.2,
		},
		ZygosityWeights: map[domain.Zygosity]float64{
			domain.ZygosityHomozygousAlternate: 1.0,
			domain.ZygosityHeterozygous:        0.85,
			domain.ZygosityHomozygousReference: 0.8,
			domain.ZygosityUnknown:             0.5,
		},
		PhenotypeWeights: map[domain.Phenotype]float64{
			domain.PhenotypePoor:         1.0,
			domain.PhenotypeIntermediate: 0.9,
			domain.PhenotypeNormal:       0.8,
			domain.PhenotypeRapid:        0.85,
			domain.PhenotypeUltraRapid:   0.9,
		},
		DefaultPhenotypeWeight: 0.5,
		Drugs: map[string]DrugRule{
			"CODEINE":      {Drug: "CODEINE", Gene: "CYP2D6", Evidence: domain.EvidenceA},
			"WARFARIN":     {Drug: "WARFARIN", Gene: "CYP2C9", Evidence: domain.EvidenceA},
			"CLOPIDOGREL":  {Drug: "CLOPIDOGREL", Gene: "CYP2C19", Evidence: domain.EvidenceA},
			"SIMVASTATIN":  {Drug: "SIMVASTATIN", Gene: "SLCO1B1", Evidence: domain.EvidenceA},
			"AZATHIOPRINE": {Drug: "AZATHIOPRINE", Gene: "TPMT", Evidence: domain.EvidenceA},
			"FLUOROURACIL": {Drug: "FLUOROURACIL", Gene: "DPYD", Evidence: domain.EvidenceA},
		},
		Genes: map[string]map[string]string{
			"CYP2D6": {
				"rs3892097": "*4",
				"rs1065852": "*10",
				"rs5030655": "*6",
			},
			"CYP2C19": {
				"rs4244285":  "*2",
				"rs4986893":  "*3",
				"rs12248560": "*17",
			},
			"CYP2C9": {
				"rs1799853": "*2",
				"rs1057910": "*3",
			},
			"SLCO1B1": {
				"rs4149056": "*5",
				"rs2306283": "*1B",
			},
			"TPMT": {
				"rs1800462": "*2",
				"rs1800460": "*3A",
				"rs1142345": "*3C",
			},
			"DPYD": {
				"rs3918290":  "*2A",
				"rs55886062": "*13",
				"rs67376798": "D949V",
				"rs4148323":  "*6",
			},
		},
	}
}
