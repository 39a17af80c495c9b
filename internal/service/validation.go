package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
)

// DefaultMaxUploadBytes bounds an uploaded VCF file
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

const vcfExtension = ".vcf"

// ValidateVCFUpload checks the name and size of an uploaded VCF file.
// A non-positive maxBytes selects DefaultMaxUploadBytes.
func ValidateVCFUpload(name string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	if !strings.EqualFold(filepath.Ext(name), vcfExtension) {
		return domain.NewValidationError("vcf_file", "invalid file format, only .vcf files are supported", name)
	}
	if size == 0 {
		return domain.NewValidationError("vcf_file", "file is empty", name)
	}
	if size > maxBytes {
		return domain.NewValidationError("vcf_file",
			fmt.Sprintf("file too large, maximum size is %d MB", maxBytes/(1024*1024)), size)
	}
	return nil
}

// ValidateDrugs normalizes the requested drug list: names are trimmed and
// uppercased, blanks and duplicates removed, order kept. Unsupported names
// are reported together in one error. A non-positive limit disables the
// count check.
func ValidateDrugs(drugs []string, kb *knowledge.KnowledgeBase, limit int) ([]string, error) {
	normalized := make([]string, 0, len(drugs))
	seen := make(map[string]bool, len(drugs))
	var invalid []string

	for _, drug := range drugs {
		name := strings.ToUpper(strings.TrimSpace(drug))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if !kb.IsSupportedDrug(name) {
			invalid = append(invalid, strings.TrimSpace(drug))
			continue
		}
		normalized = append(normalized, name)
	}

	if len(invalid) > 0 {
		return nil, &domain.UnsupportedDrugError{
			Drug:      strings.Join(invalid, ", "),
			Supported: kb.SupportedDrugs(),
		}
	}
	if len(normalized) == 0 {
		return nil, domain.NewValidationError("drugs", "at least one drug is required", drugs)
	}
	if limit > 0 && len(normalized) > limit {
		return nil, domain.NewValidationError("drugs",
			fmt.Sprintf("at most %d drugs may be analyzed per request", limit), len(normalized))
	}

	return normalized, nil
}

// SplitDrugList splits a comma separated drug field
func SplitDrugList(value string) []string {
	parts := strings.Split(value, ",")
	drugs := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			drugs = append(drugs, part)
		}
	}
	return drugs
}
