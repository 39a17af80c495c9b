package domain

import "time"

// Severity is the clinical severity attached to a risk label
type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
	SeverityNone     Severity = "none"
)

// RiskAssessment is the clinician-facing reading of a profile
type RiskAssessment struct {
	RiskLabel       string   `json:"risk_label"`
	ConfidenceScore float64  `json:"confidence_score"`
	Severity        Severity `json:"severity"`
}

// ClinicalRecommendation carries prescribing guidance
type ClinicalRecommendation struct {
	Note string `json:"note"`
}

// Explanation is the natural-language explanation of a profile.
// Provider names the source ("fallback" for the built-in template).
type Explanation struct {
	Summary  string `json:"summary"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// QualityMetrics describes how much of the input was usable
type QualityMetrics struct {
	VCFParsingSuccess bool       `json:"vcf_parsing_success"`
	VariantsAnalyzed  int        `json:"variants_analyzed"`
	MarkerVariants    int        `json:"marker_variants"`
	SupportedDrug     bool       `json:"supported_drug"`
	SupportedGene     bool       `json:"supported_gene"`
	CacheHit          bool       `json:"cache_hit"`
	Parsing           ParseStats `json:"parsing"`
}

// AnalysisResult is the full per-drug analysis envelope
type AnalysisResult struct {
	PatientID              string                 `json:"patient_id"`
	Drug                   string                 `json:"drug"`
	Timestamp              time.Time              `json:"timestamp"`
	RiskAssessment         RiskAssessment         `json:"risk_assessment"`
	Profile                PharmaProfile          `json:"pharmacogenomic_profile"`
	ClinicalRecommendation ClinicalRecommendation `json:"clinical_recommendation"`
	Explanation            Explanation            `json:"explanation"`
	QualityMetrics         QualityMetrics         `json:"quality_metrics"`
}

// AnalysisReport groups the results of one multi-drug request
type AnalysisReport struct {
	PatientID        string            `json:"patient_id"`
	VariantsAnalyzed int               `json:"variants_analyzed"`
	Results          []*AnalysisResult `json:"results"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
}
