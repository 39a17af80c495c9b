// Package knowledge holds the pharmacogenomic reference tables used for
// inference: star-allele markers per gene, drug to gene rules and the
// weights applied when scoring confidence.
package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/pkg/vcf"
)

// DrugRule maps a drug to the gene that governs its response
type DrugRule struct {
	Drug     string               `yaml:"-" json:"drug"`
	Gene     string               `yaml:"gene" json:"gene"`
	Evidence domain.EvidenceLevel `yaml:"evidence" json:"evidence"`
}

// Definition is the serializable form of a knowledge base
type Definition struct {
	EvidenceWeights        map[domain.EvidenceLevel]float64 `yaml:"evidence_weights" json:"evidence_weights"`
	ZygosityWeights        map[domain.Zygosity]float64      `yaml:"zygosity_weights" json:"zygosity_weights"`
	PhenotypeWeights       map[domain.Phenotype]float64     `yaml:"phenotype_weights" json:"phenotype_weights"`
	DefaultPhenotypeWeight float64                          `yaml:"default_phenotype_weight" json:"default_phenotype_weight"`
	Drugs                  map[string]DrugRule              `yaml:"drugs" json:"drugs"`
	// Genes maps gene symbol to rsid to star-allele name
	Genes map[string]map[string]string `yaml:"genes" json:"genes"`
}

// KnowledgeBase is an immutable, validated set of reference tables.
// It is safe for concurrent use.
type KnowledgeBase struct {
	evidence         map[domain.EvidenceLevel]float64
	zygosity         map[domain.Zygosity]float64
	phenotype        map[domain.Phenotype]float64
	defaultPhenotype float64
	drugs            map[string]DrugRule
	genes            map[string]map[string]string
	drugNames        []string
	geneNames        []string
	fingerprint      string
}

// New validates def and builds a knowledge base from a private copy of it
func New(def Definition) (*KnowledgeBase, error) {
	def = def.clone()
	if err := validate(def); err != nil {
		return nil, err
	}

	kb := &KnowledgeBase{
		evidence:         def.EvidenceWeights,
		zygosity:         def.ZygosityWeights,
		phenotype:        def.PhenotypeWeights,
		defaultPhenotype: def.DefaultPhenotypeWeight,
		drugs:            make(map[string]DrugRule, len(def.Drugs)),
		genes:            def.Genes,
	}

	for name, rule := range def.Drugs {
		drug := normalizeDrug(name)
		rule.Drug = drug
		kb.drugs[drug] = rule
		kb.drugNames = append(kb.drugNames, drug)
	}
	for gene := range def.Genes {
		kb.geneNames = append(kb.geneNames, gene)
	}
	sort.Strings(kb.drugNames)
	sort.Strings(kb.geneNames)
	kb.fingerprint = kb.digest()

	return kb, nil
}

// digest hashes every table. fmt prints maps in sorted key order.
func (kb *KnowledgeBase) digest() string {
	h := sha256.New()
	fmt.Fprint(h, kb.evidence, kb.zygosity, kb.phenotype, kb.defaultPhenotype, kb.drugs, kb.genes)
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Fingerprint identifies the table contents. Knowledge bases built from
// equal definitions share a fingerprint.
func (kb *KnowledgeBase) Fingerprint() string {
	return kb.fingerprint
}

// Default returns the shared built-in knowledge base
func Default() *KnowledgeBase {
	return defaultKnowledgeBase()
}

var defaultKnowledgeBase = sync.OnceValue(func() *KnowledgeBase {
	kb, err := New(DefaultDefinition())
	if err != nil {
		panic(fmt.Sprintf("built-in knowledge base is inconsistent: %v", err))
	}
	return kb
})

// DrugRule looks up the rule for drug, ignoring case. Unknown drugs yield an
// error that unwraps to domain.ErrUnsupportedDrug.
func (kb *KnowledgeBase) DrugRule(drug string) (DrugRule, error) {
	rule, ok := kb.drugs[normalizeDrug(drug)]
	if !ok {
		return DrugRule{}, &domain.UnsupportedDrugError{
			Drug:      drug,
			Supported: kb.SupportedDrugs(),
		}
	}
	return rule, nil
}

// IsSupportedDrug reports whether a rule exists for drug
func (kb *KnowledgeBase) IsSupportedDrug(drug string) bool {
	_, ok := kb.drugs[normalizeDrug(drug)]
	return ok
}

// Allele returns the star allele that rsid marks in gene
func (kb *KnowledgeBase) Allele(gene, rsid string) (string, bool) {
	allele, ok := kb.genes[gene][rsid]
	return allele, ok
}

// HasGene reports whether gene has an allele table
func (kb *KnowledgeBase) HasGene(gene string) bool {
	_, ok := kb.genes[gene]
	return ok
}

// Markers returns the number of marker rsids defined for gene
func (kb *KnowledgeBase) Markers(gene string) int {
	return len(kb.genes[gene])
}

func (kb *KnowledgeBase) EvidenceWeight(level domain.EvidenceLevel) float64 {
	return kb.evidence[level]
}

// ZygosityWeight falls back to the UNKNOWN weight for unlisted classes
func (kb *KnowledgeBase) ZygosityWeight(z domain.Zygosity) float64 {
	if w, ok := kb.zygosity[z]; ok {
		return w
	}
	return kb.zygosity[domain.ZygosityUnknown]
}

func (kb *KnowledgeBase) PhenotypeWeight(p domain.Phenotype) float64 {
	if w, ok := kb.phenotype[p]; ok {
		return w
	}
	return kb.defaultPhenotype
}

// SupportedDrugs returns the uppercase drug names in sorted order
func (kb *KnowledgeBase) SupportedDrugs() []string {
	return append([]string(nil), kb.drugNames...)
}

// SupportedGenes returns the genes with allele tables in sorted order
func (kb *KnowledgeBase) SupportedGenes() []string {
	return append([]string(nil), kb.geneNames...)
}

// Definition exports a deep copy of the tables
func (kb *KnowledgeBase) Definition() Definition {
	return Definition{
		EvidenceWeights:        kb.evidence,
		ZygosityWeights:        kb.zygosity,
		PhenotypeWeights:       kb.phenotype,
		DefaultPhenotypeWeight: kb.defaultPhenotype,
		Drugs:                  kb.drugs,
		Genes:                  kb.genes,
	}.clone()
}

func (d Definition) clone() Definition {
	out := Definition{
		EvidenceWeights:        make(map[domain.EvidenceLevel]float64, len(d.EvidenceWeights)),
		ZygosityWeights:        make(map[domain.Zygosity]float64, len(d.ZygosityWeights)),
		PhenotypeWeights:       make(map[domain.Phenotype]float64, len(d.PhenotypeWeights)),
		DefaultPhenotypeWeight: d.DefaultPhenotypeWeight,
		Drugs:                  make(map[string]DrugRule, len(d.Drugs)),
		Genes:                  make(map[string]map[string]string, len(d.Genes)),
	}
	for k, v := range d.EvidenceWeights {
		out.EvidenceWeights[k] = v
	}
	for k, v := range d.ZygosityWeights {
		out.ZygosityWeights[k] = v
	}
	for k, v := range d.PhenotypeWeights {
		out.PhenotypeWeights[k] = v
	}
	for k, v := range d.Drugs {
		out.Drugs[k] = v
	}
	for gene, alleles := range d.Genes {
		table := make(map[string]string, len(alleles))
		for rsid, allele := range alleles {
			table[rsid] = allele
		}
		out.Genes[gene] = table
	}
	return out
}

func validate(def Definition) error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidKnowledgeBase, fmt.Sprintf(format, args...))
	}

	for level, w := range def.EvidenceWeights {
		if !inUnitRange(w) {
			return invalid("evidence weight %s=%v outside [0,1]", level, w)
		}
	}
	for _, z := range []domain.Zygosity{
		domain.ZygosityHomozygousReference,
		domain.ZygosityHeterozygous,
		domain.ZygosityHomozygousAlternate,
		domain.ZygosityUnknown,
	} {
		w, ok := def.ZygosityWeights[z]
		if !ok {
			return invalid("missing zygosity weight for %s", z)
		}
		if !inUnitRange(w) {
			return invalid("zygosity weight %s=%v outside [0,1]", z, w)
		}
	}
	for p, w := range def.PhenotypeWeights {
		if !inUnitRange(w) {
			return invalid("phenotype weight %s=%v outside [0,1]", p, w)
		}
	}
	if !inUnitRange(def.DefaultPhenotypeWeight) {
		return invalid("default phenotype weight %v outside [0,1]", def.DefaultPhenotypeWeight)
	}

	for gene, alleles := range def.Genes {
		if strings.TrimSpace(gene) == "" {
			return invalid("empty gene symbol")
		}
		for rsid, allele := range alleles {
			if !vcf.IsRSID(rsid) {
				return invalid("gene %s: marker %q is not an rsid", gene, rsid)
			}
			if strings.TrimSpace(allele) == "" {
				return invalid("gene %s: marker %s has no allele name", gene, rsid)
			}
		}
	}

	seen := make(map[string]string, len(def.Drugs))
	for name, rule := range def.Drugs {
		drug := normalizeDrug(name)
		if drug == "" {
			return invalid("empty drug name")
		}
		if prev, dup := seen[drug]; dup {
			return invalid("drug %s defined twice (%q and %q)", drug, prev, name)
		}
		seen[drug] = name

		if _, ok := def.Genes[rule.Gene]; !ok {
			return invalid("drug %s references gene %q without an allele table", drug, rule.Gene)
		}
		if _, ok := def.EvidenceWeights[rule.Evidence]; !ok {
			return invalid("drug %s has unknown evidence level %q", drug, rule.Evidence)
		}
	}

	return nil
}

func inUnitRange(w float64) bool {
	return w >= 0 && w <= 1
}

func normalizeDrug(drug string) string {
	return strings.ToUpper(strings.TrimSpace(drug))
}
