package service

import (
	"strings"

	"github.com/pharmaguard-engine/internal/domain"
)

// Risk labels shown to clinicians
const (
	RiskLabelSafe         = "Safe"
	RiskLabelAdjustDosage = "Adjust Dosage"
	RiskLabelToxic        = "Toxic"
	RiskLabelIneffective  = "Ineffective"
	RiskLabelMonitor      = "Monitor"
	RiskLabelUnknown      = "Unknown"
)

// ClinicalNote accompanies every recommendation
const ClinicalNote = "Refer to CPIC guidelines before prescribing."

type phenotypeRisk struct {
	severity domain.Severity
	label    string
}

var phenotypeRisks = map[domain.Phenotype]phenotypeRisk{
	domain.PhenotypePoor:         {domain.SeverityHigh, RiskLabelToxic},
	domain.PhenotypeIntermediate: {domain.SeverityModerate, RiskLabelAdjustDosage},
	domain.PhenotypeNormal:       {domain.SeverityLow, RiskLabelSafe},
	domain.PhenotypeRapid:        {domain.SeverityModerate, RiskLabelMonitor},
	domain.PhenotypeUltraRapid:   {domain.SeverityModerate, RiskLabelAdjustDosage},
}

// prodrugs lose efficacy rather than accumulate in poor metabolizers
var prodrugs = map[string]bool{
	"CLOPIDOGREL": true,
}

// narrowTherapeuticDrugs accumulate to toxic levels in poor metabolizers
var narrowTherapeuticDrugs = map[string]bool{
	"AZATHIOPRINE": true,
	"FLUOROURACIL": true,
}

// AssessRisk maps a drug and profile to a clinical risk label and severity
func AssessRisk(drug string, profile *domain.PharmaProfile) domain.RiskAssessment {
	drug = strings.ToUpper(strings.TrimSpace(drug))
	phenotype := domain.Phenotype(strings.ToUpper(strings.TrimSpace(string(profile.Phenotype))))

	risk, ok := phenotypeRisks[phenotype]
	if !ok {
		risk = phenotypeRisk{domain.SeverityNone, RiskLabelUnknown}
	}

	label := risk.label
	switch {
	case phenotype == domain.PhenotypePoor && prodrugs[drug]:
		label = RiskLabelIneffective
	case phenotype == domain.PhenotypePoor && narrowTherapeuticDrugs[drug]:
		label = RiskLabelToxic
	case phenotype == domain.PhenotypePoor, phenotype == domain.PhenotypeIntermediate:
		label = RiskLabelAdjustDosage
	}

	return domain.RiskAssessment{
		RiskLabel:       label,
		ConfidenceScore: profile.Confidence,
		Severity:        risk.severity,
	}
}
