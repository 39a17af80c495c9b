package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-engine/internal/domain"
)

func TestFromConfig_Builtin(t *testing.T) {
	for _, source := range []string{"", domain.KnowledgeSourceBuiltin} {
		kb, err := FromConfig(context.Background(), domain.KnowledgeBaseConfig{Source: source}, nil, testLogger())

		require.NoError(t, err)
		assert.Same(t, Default(), kb)
	}
}

func TestFromConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drugs:\n  tramadol: {gene: CYP2D6, evidence: B}\n"), 0o644))

	kb, err := FromConfig(context.Background(), domain.KnowledgeBaseConfig{
		Source: domain.KnowledgeSourceYAML,
		Path:   path,
	}, nil, testLogger())

	require.NoError(t, err)
	assert.Len(t, kb.SupportedDrugs(), 7)
	assert.True(t, kb.IsSupportedDrug("TRAMADOL"))
}

func TestFromConfig_DatabaseSeedsEmptyCatalog(t *testing.T) {
	catalog, mock := newMockCatalog(t, DialectSQLite)

	mock.ExpectQuery("SELECT gene, rsid, allele FROM star_alleles").
		WillReturnRows(sqlmock.NewRows([]string{"gene", "rsid", "allele"}))
	mock.ExpectQuery("SELECT drug, gene, evidence FROM drug_rules").
		WillReturnRows(sqlmock.NewRows([]string{"drug", "gene", "evidence"}))

	mock.ExpectBegin()
	for i := 0; i < 17; i++ {
		mock.ExpectExec("INSERT INTO star_alleles").WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	for i := 0; i < 6; i++ {
		mock.ExpectExec("INSERT INTO drug_rules").WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT gene, rsid, allele FROM star_alleles").
		WillReturnRows(sqlmock.NewRows([]string{"gene", "rsid", "allele"}).
			AddRow("CYP2D6", "rs3892097", "*4"))
	mock.ExpectQuery("SELECT drug, gene, evidence FROM drug_rules").
		WillReturnRows(sqlmock.NewRows([]string{"drug", "gene", "evidence"}).
			AddRow("CODEINE", "CYP2D6", "A"))

	kb, err := FromConfig(context.Background(), domain.KnowledgeBaseConfig{
		Source: domain.KnowledgeSourceDatabase,
	}, catalog, testLogger())

	require.NoError(t, err)
	assert.Equal(t, []string{"CODEINE"}, kb.SupportedDrugs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFromConfig_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := FromConfig(ctx, domain.KnowledgeBaseConfig{Source: domain.KnowledgeSourceDatabase}, nil, testLogger())
	assert.Error(t, err)

	_, err = FromConfig(ctx, domain.KnowledgeBaseConfig{Source: "s3"}, nil, testLogger())
	assert.Error(t, err)

	_, err = FromConfig(ctx, domain.KnowledgeBaseConfig{
		Source: domain.KnowledgeSourceYAML,
		Path:   filepath.Join(t.TempDir(), "missing.yaml"),
	}, nil, testLogger())
	assert.Error(t, err)
}
