// Package vcf extracts genotyped, gene-annotated variant records from VCF text.
//
// The reader is tolerant: header lines are skipped and data lines
// that cannot yield a usable record are dropped without error.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pharmaguard-engine/internal/domain"
)

// Column layout of a VCF data line
const (
	colChrom = iota
	colPos
	colID
	colRef
	colAlt
	colQual
	colFilter
	colInfo
	colFormat
	colSample

	minColumns = 10
)

const (
	commentPrefix  = "#"
	missingValue   = "."
	geneInfoKey    = "GENE"
	genotypeKey    = "GT"
	maxLineBytes   = 1024 * 1024
	infoSeparator  = ";"
	fieldSeparator = ":"
)

var rsIDPattern = regexp.MustCompile(`^rs\d+`)

// Stats counts what happened to each data line during a parse
type Stats = domain.ParseStats

// Parser reads VCF content into domain.VariantRecord values
type Parser struct{}

// NewParser creates a new VCF parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses the full text of a VCF file. Malformed lines are excluded
// from the result; empty or header-only content yields an empty slice.
func (p *Parser) Parse(content string) []domain.VariantRecord {
	records, _ := p.ParseWithStats(content)
	return records
}

// ParseWithStats parses content and reports per-line outcomes
func (p *Parser) ParseWithStats(content string) ([]domain.VariantRecord, Stats) {
	// strings.Reader never fails, and lines are bounded by the content itself
	records, stats, _ := p.parse(strings.NewReader(content), len(content)+1)
	return records, stats
}

// ParseReader parses VCF content from r. The only errors returned are read
// errors from r and lines longer than 1 MiB.
func (p *Parser) ParseReader(r io.Reader) ([]domain.VariantRecord, Stats, error) {
	return p.parse(r, maxLineBytes)
}

func (p *Parser) parse(r io.Reader, maxLine int) ([]domain.VariantRecord, Stats, error) {
	records := make([]domain.VariantRecord, 0)
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		stats.DataLines++
		record, ok := parseLine(line, &stats)
		if !ok {
			continue
		}

		stats.Retained++
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return records, stats, fmt.Errorf("reading VCF content: %w", err)
	}

	return records, stats, nil
}

// parseLine converts one data line into a record, updating the drop counters
func parseLine(line string, stats *Stats) (domain.VariantRecord, bool) {
	columns := strings.Fields(line)
	if len(columns) < minColumns {
		stats.ShortRows++
		return domain.VariantRecord{}, false
	}

	rsid := strings.TrimSpace(columns[colID])
	if !IsRSID(rsid) {
		stats.InvalidIDs++
		return domain.VariantRecord{}, false
	}

	gene := GeneFromInfo(columns[colInfo])
	if gene == "" {
		stats.MissingGene++
		return domain.VariantRecord{}, false
	}

	genotype := GenotypeFromSample(columns[colFormat], columns[colSample])
	if genotype == "" {
		stats.MissingGenotype++
		return domain.VariantRecord{}, false
	}

	return domain.VariantRecord{
		RSID:       rsid,
		Gene:       gene,
		Genotype:   genotype,
		Chromosome: columns[colChrom],
		Position:   columns[colPos],
	}, true
}

// IsRSID reports whether id is a usable dbSNP reference identifier
func IsRSID(id string) bool {
	if id == "" || id == missingValue {
		return false
	}
	return rsIDPattern.MatchString(id)
}

// GeneFromInfo returns the trimmed value of the first non-empty GENE key in
// an INFO column, or "" when there is none.
func GeneFromInfo(info string) string {
	for _, entry := range strings.Split(info, infoSeparator) {
		key, value, found := strings.Cut(entry, "=")
		if !found || strings.TrimSpace(key) != geneInfoKey {
			continue
		}
		if gene := strings.TrimSpace(value); gene != "" {
			return gene
		}
	}
	return ""
}

// GenotypeFromSample returns the sample value aligned with the GT entry of
// the FORMAT column, or "" when GT is absent or the sample is too short.
func GenotypeFromSample(format, sample string) string {
	formatFields := strings.Split(format, fieldSeparator)
	sampleFields := strings.Split(sample, fieldSeparator)

	for i, field := range formatFields {
		if field != genotypeKey {
			continue
		}
		if i >= len(sampleFields) {
			return ""
		}
		return sampleFields[i]
	}
	return ""
}
