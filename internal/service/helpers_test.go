package service

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// capturingLogger records JSON log lines for assertions
func capturingLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger, &buf
}

func record(rsid, gene, genotype string) domain.VariantRecord {
	return domain.VariantRecord{
		RSID:       rsid,
		Gene:       gene,
		Genotype:   genotype,
		Chromosome: "chr22",
		Position:   "1",
	}
}
