package service

import (
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
)

// InferenceEngine infers star alleles, phenotype and diplotype for a gene
// from parsed variant records. It only reads the knowledge base and is safe
// for concurrent use.
type InferenceEngine struct {
	kb     *knowledge.KnowledgeBase
	logger *logrus.Logger
}

// NewInferenceEngine creates a new inference engine
func NewInferenceEngine(kb *knowledge.KnowledgeBase, logger *logrus.Logger) *InferenceEngine {
	return &InferenceEngine{
		kb:     kb,
		logger: logger,
	}
}

// Infer runs inference for a single gene. Records for other genes and rsids
// outside the gene's marker table are ignored.
func (e *InferenceEngine) Infer(records []domain.VariantRecord, gene string) domain.GeneInferenceResult {
	if !e.kb.HasGene(gene) {
		// Drug rules are validated against the allele tables, so this means
		// the caller bypassed the knowledge base.
		e.logger.WithField("gene", gene).Error("Invariant violation: inference requested for gene without allele table")
		return domain.DefaultInferenceResult(gene)
	}

	alleles := make([]string, 0)
	var weights []float64

	for _, record := range records {
		if record.Gene != gene {
			continue
		}
		allele, ok := e.kb.Allele(gene, record.RSID)
		if !ok {
			continue
		}

		if domain.IsWildType(record.Genotype) {
			continue
		}

		alleles = append(alleles, allele)
		weights = append(weights, e.kb.ZygosityWeight(domain.ClassifyGenotype(record.Genotype)))
	}

	result := domain.GeneInferenceResult{
		Gene:               gene,
		Alleles:            alleles,
		Phenotype:          classifyPhenotype(len(alleles)),
		GenotypeConfidence: domain.DefaultGenotypeConfidence,
		Diplotype:          diplotype(alleles),
	}

	if len(weights) > 0 {
		// Mean only fails on empty input
		mean, _ := stats.Mean(weights)
		result.GenotypeConfidence = mean
	}

	e.logger.WithFields(logrus.Fields{
		"gene":                gene,
		"alleles":             len(alleles),
		"phenotype":           result.Phenotype,
		"genotype_confidence": result.GenotypeConfidence,
	}).Debug("Gene inference completed")

	return result
}

// classifyPhenotype counts alleles only; RM and URM are never produced here
func classifyPhenotype(alleleCount int) domain.Phenotype {
	switch {
	case alleleCount >= 2:
		return domain.PhenotypePoor
	case alleleCount == 1:
		return domain.PhenotypeIntermediate
	default:
		return domain.PhenotypeNormal
	}
}

// diplotype renders at most the first two alleles, padding with *1
func diplotype(alleles []string) string {
	switch len(alleles) {
	case 0:
		return domain.WildTypeDiplotype
	case 1:
		return domain.WildTypeAllele + "/" + alleles[0]
	default:
		return alleles[0] + "/" + alleles[1]
	}
}
