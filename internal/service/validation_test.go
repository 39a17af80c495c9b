package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
)

func TestValidateVCFUpload(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		max     int64
		wantErr bool
	}{
		{"valid", "patient.vcf", 1024, 0, false},
		{"upper case extension", "PATIENT.VCF", 1024, 0, false},
		{"exactly at limit", "patient.vcf", DefaultMaxUploadBytes, 0, false},
		{"wrong extension", "patient.txt", 1024, 0, true},
		{"compressed", "patient.vcf.gz", 1024, 0, true},
		{"empty", "patient.vcf", 0, 0, true},
		{"too large", "patient.vcf", DefaultMaxUploadBytes + 1, 0, true},
		{"custom limit", "patient.vcf", 2048, 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVCFUpload(tt.file, tt.size, tt.max)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, "vcf_file", validationErr.Field)
		})
	}
}

func TestValidateDrugs(t *testing.T) {
	kb := knowledge.Default()

	drugs, err := ValidateDrugs([]string{" codeine", "WARFARIN", "Codeine", ""}, kb, 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"CODEINE", "WARFARIN"}, drugs)
}

func TestValidateDrugs_Errors(t *testing.T) {
	kb := knowledge.Default()

	_, err := ValidateDrugs(nil, kb, 0)
	assert.Equal(t, domain.ErrCodeValidation, domain.ErrorCodeFor(err))

	_, err = ValidateDrugs([]string{" ", ""}, kb, 0)
	assert.Equal(t, domain.ErrCodeValidation, domain.ErrorCodeFor(err))

	_, err = ValidateDrugs([]string{"CODEINE", "aspirin", "Ibuprofen"}, kb, 0)
	require.True(t, errors.Is(err, domain.ErrUnsupportedDrug))
	var unsupported *domain.UnsupportedDrugError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "aspirin, Ibuprofen", unsupported.Drug)

	_, err = ValidateDrugs([]string{"CODEINE", "WARFARIN", "TPMT"}, kb, 2)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedDrug))

	_, err = ValidateDrugs([]string{"CODEINE", "WARFARIN", "SIMVASTATIN"}, kb, 2)
	assert.Equal(t, domain.ErrCodeValidation, domain.ErrorCodeFor(err))
}

func TestSplitDrugList(t *testing.T) {
	assert.Equal(t, []string{"CODEINE", "warfarin"}, SplitDrugList("CODEINE, warfarin,,"))
	assert.Empty(t, SplitDrugList(""))
}
