package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pharmaguard-engine/internal/domain"
)

// document is the on-disk YAML layout. Every section is optional; present
// keys replace the matching built-in entry unless inherit_defaults is false.
type document struct {
	InheritDefaults        *bool                            `yaml:"inherit_defaults"`
	EvidenceWeights        map[domain.EvidenceLevel]float64 `yaml:"evidence_weights"`
	ZygosityWeights        map[domain.Zygosity]float64      `yaml:"zygosity_weights"`
	PhenotypeWeights       map[domain.Phenotype]float64     `yaml:"phenotype_weights"`
	DefaultPhenotypeWeight *float64                         `yaml:"default_phenotype_weight"`
	Drugs                  map[string]DrugRule              `yaml:"drugs"`
	Genes                  map[string]map[string]string     `yaml:"genes"`
}

// LoadYAML decodes a knowledge-base document. Unknown keys are rejected.
func LoadYAML(data []byte) (Definition, error) {
	var doc document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Definition{}, fmt.Errorf("%w: decoding YAML: %v", domain.ErrInvalidKnowledgeBase, err)
	}

	base := DefaultDefinition()
	if doc.InheritDefaults != nil && !*doc.InheritDefaults {
		base = Definition{
			EvidenceWeights:  map[domain.EvidenceLevel]float64{},
			ZygosityWeights:  map[domain.Zygosity]float64{},
			PhenotypeWeights: map[domain.Phenotype]float64{},
			Drugs:            map[string]DrugRule{},
			Genes:            map[string]map[string]string{},
		}
	}

	return doc.overlay(base), nil
}

// LoadYAMLFile reads and decodes the document at path
func LoadYAMLFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("reading knowledge base %s: %w", path, err)
	}
	return LoadYAML(data)
}

// EncodeYAML renders def as a document that LoadYAML accepts
func EncodeYAML(def Definition) ([]byte, error) {
	inherit := false
	weight := def.DefaultPhenotypeWeight
	doc := document{
		InheritDefaults:        &inherit,
		EvidenceWeights:        def.EvidenceWeights,
		ZygosityWeights:        def.ZygosityWeights,
		PhenotypeWeights:       def.PhenotypeWeights,
		DefaultPhenotypeWeight: &weight,
		Drugs:                  def.Drugs,
		Genes:                  def.Genes,
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding knowledge base: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoding knowledge base: %w", err)
	}
	return buf.Bytes(), nil
}

func (doc document) overlay(base Definition) Definition {
	for k, v := range doc.EvidenceWeights {
		base.EvidenceWeights[k] = v
	}
	for k, v := range doc.ZygosityWeights {
		base.ZygosityWeights[k] = v
	}
	for k, v := range doc.PhenotypeWeights {
		base.PhenotypeWeights[k] = v
	}
	if doc.DefaultPhenotypeWeight != nil {
		base.DefaultPhenotypeWeight = *doc.DefaultPhenotypeWeight
	}
	for name, rule := range doc.Drugs {
		drug := normalizeDrug(name)
		rule.Drug = drug
		base.Drugs[drug] = rule
	}
	for gene, alleles := range doc.Genes {
		table, ok := base.Genes[gene]
		if !ok {
			table = make(map[string]string, len(alleles))
			base.Genes[gene] = table
		}
		for rsid, allele := range alleles {
			table[rsid] = allele
		}
	}
	return base
}
