package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-engine/internal/domain"
)

const sampleVCF = `##fileformat=VCFv4.2
##source=PharmaGuard
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	SAMPLE
chr22	42526694	rs3892097	C	T	99	PASS	GENE=CYP2D6	GT:DP	1/1:30
chr22	42522613	rs1065852	G	A	99	PASS	GENE=CYP2D6;AF=0.2	GT:DP	0/1:28
chr10	94781859	rs4244285	G	A	99	PASS	DP=40;GENE=CYP2C19	DP:GT	40:0|1
chr10	94842866	rs1799853	C	T	99	PASS	GENE=CYP2C9	GT	0/0
`

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	records := parser.Parse(sampleVCF)

	require.Len(t, records, 4)
	assert.Equal(t, domain.VariantRecord{
		RSID:       "rs3892097",
		Gene:       "CYP2D6",
		Genotype:   "1/1",
		Chromosome: "chr22",
		Position:   "42526694",
	}, records[0])
	assert.Equal(t, "rs1065852", records[1].RSID)
	assert.Equal(t, "0/1", records[1].Genotype)
	assert.Equal(t, "CYP2C19", records[2].Gene)
	assert.Equal(t, "0|1", records[2].Genotype, "GT index follows FORMAT order")
	assert.Equal(t, "0/0", records[3].Genotype)
}

func TestParser_DropsMalformedLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "chr22 42526694 rs3892097 C T 99 PASS GENE=CYP2D6 GT"},
		{"missing id", "chr22 42526694 . C T 99 PASS GENE=CYP2D6 GT 0/1"},
		{"non rs id", "chr22 42526694 COSM123 C T 99 PASS GENE=CYP2D6 GT 0/1"},
		{"rs without digits", "chr22 42526694 rsABC C T 99 PASS GENE=CYP2D6 GT 0/1"},
		{"missing gene", "chr22 42526694 rs3892097 C T 99 PASS AF=0.1 GT 0/1"},
		{"empty gene", "chr22 42526694 rs3892097 C T 99 PASS GENE=;AF=0.1 GT 0/1"},
		{"missing GT", "chr22 42526694 rs3892097 C T 99 PASS GENE=CYP2D6 DP 30"},
		{"sample shorter than format", "chr22 42526694 rs3892097 C T 99 PASS GENE=CYP2D6 DP:GT 30"},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, stats := parser.ParseWithStats(tt.line + "\n")
			assert.Empty(t, records)
			assert.Equal(t, 1, stats.DataLines)
			assert.Equal(t, 1, stats.Dropped())
		})
	}
}

func TestParser_Stats(t *testing.T) {
	content := strings.Join([]string{
		"#header",
		"chr22 1 rs1 C T 99 PASS GENE=CYP2D6 GT 0/1",
		"chr22 2 rs2 C T 99",
		"chr22 3 . C T 99 PASS GENE=CYP2D6 GT 0/1",
		"chr22 4 rs4 C T 99 PASS DP=3 GT 0/1",
		"chr22 5 rs5 C T 99 PASS GENE=CYP2D6 DP 3",
		"",
	}, "\n")

	records, stats := NewParser().ParseWithStats(content)

	require.Len(t, records, 1)
	assert.Equal(t, Stats{
		DataLines:       5,
		Retained:        1,
		ShortRows:       1,
		InvalidIDs:      1,
		MissingGene:     1,
		MissingGenotype: 1,
	}, stats)
}

func TestParser_EmptyInput(t *testing.T) {
	parser := NewParser()

	for _, content := range []string{"", "\n\n", "##fileformat=VCFv4.2\n#CHROM\tPOS\n"} {
		records := parser.Parse(content)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	}
}

func TestParser_WhitespaceAndLineEndings(t *testing.T) {
	content := "chr22   42526694 rs16947\tC T 99 PASS AF=0.3;GENE=CYP2D6 GT:DP 0/1:30\r\n"

	records := NewParser().Parse(content)

	require.Len(t, records, 1)
	assert.Equal(t, "CYP2D6", records[0].Gene)
	assert.Equal(t, "0/1", records[0].Genotype)
}

func TestParser_Idempotent(t *testing.T) {
	parser := NewParser()

	first := parser.Parse(sampleVCF)
	second := parser.Parse(sampleVCF)

	assert.Equal(t, first, second)
}

func TestParser_ParseReader(t *testing.T) {
	records, stats, err := NewParser().ParseReader(strings.NewReader(sampleVCF))

	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, 4, stats.Retained)
}

func TestParser_ParseReader_LineTooLong(t *testing.T) {
	content := "chr22 1 rs1 C T 99 PASS GENE=CYP2D6;AF=" + strings.Repeat("0", maxLineBytes) + " GT 0/1\n"

	_, _, err := NewParser().ParseReader(strings.NewReader(content))

	assert.Error(t, err)
}

func TestParser_SkipsEmptyGeneForLaterValue(t *testing.T) {
	records := NewParser().Parse("chr22 42526694 rs3892097 C T 99 PASS GENE=;GENE=CYP2D6 GT 1/1\n")

	require.Len(t, records, 1)
	assert.Equal(t, "CYP2D6", records[0].Gene)
}

func TestIsRSID(t *testing.T) {
	tests := map[string]bool{
		"rs16947":  true,
		"rs1":      true,
		"":         false,
		".":        false,
		"rs":       false,
		"RS16947":  false,
		"16947":    false,
		"COSM1234": false,
	}

	for id, expected := range tests {
		assert.Equal(t, expected, IsRSID(id), "IsRSID(%q)", id)
	}
}

func TestGeneFromInfo(t *testing.T) {
	tests := []struct {
		info     string
		expected string
	}{
		{"GENE=CYP2D6", "CYP2D6"},
		{"AF=0.1;GENE=TPMT;DP=30", "TPMT"},
		{"GENE= DPYD ", "DPYD"},
		{"AF=0.1", ""},
		{"GENE=", ""},
		{"GENE=;GENE=CYP2D6", "CYP2D6"},
		{"GENE= ;AF=0.1;GENE=TPMT", "TPMT"},
		{"GENE=CYP2C9;GENE=CYP2D6", "CYP2C9"},
		{".", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GeneFromInfo(tt.info), "GeneFromInfo(%q)", tt.info)
	}
}

func TestGenotypeFromSample(t *testing.T) {
	tests := []struct {
		format   string
		sample   string
		expected string
	}{
		{"GT", "0/1", "0/1"},
		{"GT:DP", "1|1:30", "1|1"},
		{"DP:GQ:GT", "30:99:1/0", "1/0"},
		{"DP", "30", ""},
		{"DP:GT", "30", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GenotypeFromSample(tt.format, tt.sample))
	}
}
