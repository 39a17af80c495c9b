package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
)

// Dialect selects the placeholder style of the catalog's SQL
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Catalog stores drug rules and star-allele markers in a SQL database.
// The schema is owned by the database package.
type Catalog struct {
	db      *sql.DB
	dialect Dialect
	log     *logrus.Logger
}

// NewCatalog creates a catalog over an open connection
func NewCatalog(db *sql.DB, dialect Dialect, logger *logrus.Logger) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported catalog dialect: %q", dialect)
	}
	return &Catalog{db: db, dialect: dialect, log: logger}, nil
}

// Load reads the catalog tables. Weights are not stored in the catalog and
// keep their built-in values. An empty catalog returns domain.ErrNotFound.
func (c *Catalog) Load(ctx context.Context) (Definition, error) {
	def := DefaultDefinition()
	def.Drugs = make(map[string]DrugRule)
	def.Genes = make(map[string]map[string]string)

	rows, err := c.db.QueryContext(ctx, `SELECT gene, rsid, allele FROM star_alleles ORDER BY gene, rsid`)
	if err != nil {
		return Definition{}, fmt.Errorf("querying star alleles: %w", err)
	}
	for rows.Next() {
		var gene, rsid, allele string
		if err := rows.Scan(&gene, &rsid, &allele); err != nil {
			rows.Close()
			return Definition{}, fmt.Errorf("scanning star allele: %w", err)
		}
		table, ok := def.Genes[gene]
		if !ok {
			table = make(map[string]string)
			def.Genes[gene] = table
		}
		table[rsid] = allele
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Definition{}, fmt.Errorf("iterating star alleles: %w", err)
	}
	rows.Close()

	rows, err = c.db.QueryContext(ctx, `SELECT drug, gene, evidence FROM drug_rules ORDER BY drug`)
	if err != nil {
		return Definition{}, fmt.Errorf("querying drug rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rule DrugRule
		var evidence string
		if err := rows.Scan(&rule.Drug, &rule.Gene, &evidence); err != nil {
			return Definition{}, fmt.Errorf("scanning drug rule: %w", err)
		}
		rule.Evidence = domain.EvidenceLevel(evidence)
		def.Drugs[rule.Drug] = rule
	}
	if err := rows.Err(); err != nil {
		return Definition{}, fmt.Errorf("iterating drug rules: %w", err)
	}

	if len(def.Drugs) == 0 && len(def.Genes) == 0 {
		return Definition{}, fmt.Errorf("knowledge-base catalog is empty: %w", domain.ErrNotFound)
	}

	c.log.WithFields(logrus.Fields{
		"drugs": len(def.Drugs),
		"genes": len(def.Genes),
	}).Debug("Loaded knowledge-base catalog")

	return def, nil
}

// Seed upserts every drug rule and star allele of def in one transaction
func (c *Catalog) Seed(ctx context.Context, def Definition) error {
	if _, err := New(def); err != nil {
		return fmt.Errorf("refusing to seed catalog: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	alleleQuery := fmt.Sprintf(
		`INSERT INTO star_alleles (gene, rsid, allele) VALUES (%s)
		ON CONFLICT (gene, rsid) DO UPDATE SET allele = excluded.allele`,
		c.placeholders(3),
	)
	markers := 0
	for _, gene := range sortedKeys(def.Genes) {
		alleles := def.Genes[gene]
		for _, rsid := range sortedKeys(alleles) {
			if _, err := tx.ExecContext(ctx, alleleQuery, gene, rsid, alleles[rsid]); err != nil {
				return fmt.Errorf("upserting allele %s/%s: %w", gene, rsid, err)
			}
			markers++
		}
	}

	ruleQuery := fmt.Sprintf(
		`INSERT INTO drug_rules (drug, gene, evidence) VALUES (%s)
		ON CONFLICT (drug) DO UPDATE SET gene = excluded.gene, evidence = excluded.evidence`,
		c.placeholders(3),
	)
	for _, name := range sortedKeys(def.Drugs) {
		rule := def.Drugs[name]
		if _, err := tx.ExecContext(ctx, ruleQuery, normalizeDrug(name), rule.Gene, string(rule.Evidence)); err != nil {
			return fmt.Errorf("upserting drug rule %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"drugs":   len(def.Drugs),
		"markers": markers,
	}).Info("Seeded knowledge-base catalog")

	return nil
}

// placeholders renders n bind parameters for the catalog's dialect
func (c *Catalog) placeholders(n int) string {
	params := make([]string, n)
	for i := range params {
		if c.dialect == DialectPostgres {
			params[i] = "$" + strconv.Itoa(i+1)
		} else {
			params[i] = "?"
		}
	}
	return strings.Join(params, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
