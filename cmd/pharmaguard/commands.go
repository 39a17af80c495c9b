package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/pharmaguard-engine/internal/app"
	"github.com/pharmaguard-engine/internal/config"
	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/knowledge"
	"github.com/pharmaguard-engine/internal/logging"
	"github.com/pharmaguard-engine/internal/service"
	"github.com/pharmaguard-engine/internal/setup"
)

const (
	formatJSON = "json"
	formatText = "text"
)

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// commandFlags holds the flags every command shares. Dotted names bind to
// the matching configuration keys.
type commandFlags struct {
	set        *pflag.FlagSet
	configFile *string
}

func (c *cli) newFlags(name string) *commandFlags {
	set := pflag.NewFlagSet(name, pflag.ContinueOnError)
	set.SetOutput(c.stderr)

	f := &commandFlags{set: set}
	f.configFile = set.String("config", "", "path to config.yaml")
	set.String("knowledge_base.source", domain.KnowledgeSourceBuiltin, "knowledge base source: builtin, yaml or database")
	set.String("knowledge_base.path", "", "knowledge base YAML file")
	set.String("database.driver", "sqlite", "catalog database driver: sqlite or postgres")
	set.String("database.path", "", "SQLite catalog file")
	set.String("logging.level", "warn", "log level")
	return f
}

// parse reports bad flags as usage errors; pflag.ErrHelp passes through
func (f *commandFlags) parse(args []string) error {
	if err := f.set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError(err.Error())
	}
	return nil
}

// load reads configuration with the command's flags applied. Logs go to
// stderr so stdout only carries command output.
func (c *cli) load(f *commandFlags) (*domain.Config, *logrus.Logger, error) {
	manager, err := config.NewManager(config.WithConfigFile(*f.configFile), config.WithFlags(f.set))
	if err != nil {
		return nil, nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := manager.GetConfig()
	if !f.set.Changed("logging.level") {
		cfg.Logging.Level = "warn"
	}
	cfg.Logging.Output = "stderr"
	logger := logging.New(cfg.Logging)
	logger.SetOutput(c.stderr)

	return cfg, logger, nil
}

func (c *cli) analyze(ctx context.Context, args []string) error {
	f := c.newFlags("analyze")
	drugs := f.set.StringSliceP("drug", "d", nil, "drug to analyze; repeat or comma separate")
	format := f.set.StringP("format", "f", formatText, "output format: text or json")
	if err := f.parse(args); err != nil {
		return ignoreHelp(err)
	}

	if f.set.NArg() != 1 {
		return usageError("analyze takes exactly one VCF file (use - for stdin)")
	}
	if len(*drugs) == 0 {
		return usageError("at least one --drug is required")
	}
	if *format != formatText && *format != formatJSON {
		return usageError(fmt.Sprintf("unknown format %q", *format))
	}

	cfg, logger, err := c.load(f)
	if err != nil {
		return err
	}

	input, err := c.openVCF(f.set.Arg(0), cfg.Server.MaxUploadBytes)
	if err != nil {
		return err
	}
	defer input.Close()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Analysis.AnalyzeReader(ctx, input, *drugs)
	if err != nil {
		return err
	}

	if *format == formatJSON {
		return writeJSON(c.stdout, report)
	}
	return writeReport(c.stdout, report)
}

// openVCF opens a VCF file, or stdin for "-", applying the upload checks
func (c *cli) openVCF(path string, maxBytes int64) (io.ReadCloser, error) {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxUploadBytes
	}

	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(c.stdin, maxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if err := service.ValidateVCFUpload("stdin.vcf", int64(len(data)), maxBytes); err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := service.ValidateVCFUpload(filepath.Base(path), info.Size(), maxBytes); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (c *cli) drugs(ctx context.Context, args []string) error {
	f := c.newFlags("drugs")
	format := f.set.StringP("format", "f", formatText, "output format: text or json")
	if err := f.parse(args); err != nil {
		return ignoreHelp(err)
	}

	kb, err := c.knowledgeBase(ctx, f)
	if err != nil {
		return err
	}

	type drugRow struct {
		Drug     string               `json:"drug"`
		Gene     string               `json:"gene"`
		Evidence domain.EvidenceLevel `json:"cpic_evidence"`
	}
	rows := make([]drugRow, 0, len(kb.SupportedDrugs()))
	for _, name := range kb.SupportedDrugs() {
		rule, err := kb.DrugRule(name)
		if err != nil {
			return err
		}
		rows = append(rows, drugRow{Drug: name, Gene: rule.Gene, Evidence: rule.Evidence})
	}

	if *format == formatJSON {
		return writeJSON(c.stdout, rows)
	}

	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DRUG\tGENE\tCPIC EVIDENCE")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.Drug, row.Gene, row.Evidence)
	}
	return w.Flush()
}

func (c *cli) genes(ctx context.Context, args []string) error {
	f := c.newFlags("genes")
	if err := f.parse(args); err != nil {
		return ignoreHelp(err)
	}

	kb, err := c.knowledgeBase(ctx, f)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GENE\tMARKERS")
	for _, gene := range kb.SupportedGenes() {
		fmt.Fprintf(w, "%s\t%d\n", gene, kb.Markers(gene))
	}
	return w.Flush()
}

func (c *cli) seedCatalog(ctx context.Context, args []string) error {
	f := c.newFlags("seed-catalog")
	from := f.set.String("from", "", "seed from this knowledge base YAML file instead of the built-in tables")
	if err := f.parse(args); err != nil {
		return ignoreHelp(err)
	}

	cfg, logger, err := c.load(f)
	if err != nil {
		return err
	}

	def := knowledge.DefaultDefinition()
	if *from != "" {
		if def, err = knowledge.LoadYAMLFile(*from); err != nil {
			return err
		}
	}

	a := &app.App{Config: cfg, Logger: logger}
	if err := a.OpenCatalog(ctx); err != nil {
		return err
	}
	defer a.Close()

	if err := a.Catalog.Seed(ctx, def); err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Seeded %d drug rule(s) and %d gene(s) into the %s catalog\n",
		len(def.Drugs), len(def.Genes), a.DB.Driver)
	return nil
}

func (c *cli) exportKB(ctx context.Context, args []string) error {
	f := c.newFlags("export-kb")
	output := f.set.StringP("output", "o", "", "write to this file instead of stdout")
	if err := f.parse(args); err != nil {
		return ignoreHelp(err)
	}

	kb, err := c.knowledgeBase(ctx, f)
	if err != nil {
		return err
	}

	data, err := knowledge.EncodeYAML(kb.Definition())
	if err != nil {
		return err
	}

	if *output == "" {
		_, err = c.stdout.Write(data)
		return err
	}
	return os.WriteFile(*output, data, 0o644)
}

func (c *cli) setupMCP(args []string) error {
	set := pflag.NewFlagSet("setup-mcp", pflag.ContinueOnError)
	set.SetOutput(c.stderr)
	clientConfig := set.String("client-config", "", "client config file (default: the desktop client's config for this OS)")
	binary := set.String("binary", "", "MCP server binary (default: search PATH and common locations)")
	name := set.String("name", setup.DefaultServerName, "server name in the client config")
	configFile := set.String("config", "", "config.yaml passed to the server")
	check := set.Bool("check", false, "only report the current registration")
	if err := set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usageError(err.Error())
	}

	path := *clientConfig
	if path == "" {
		var err error
		if path, err = setup.DefaultClientConfigPath(); err != nil {
			return err
		}
	}

	if *check {
		status, err := setup.Check(path, *name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s: registered=%t command=%s\n", status.ClientConfigPath, status.Registered, status.Entry.Command)
		for _, issue := range status.Issues {
			fmt.Fprintf(c.stdout, "  - %s\n", issue)
		}
		if len(status.Issues) > 0 {
			return fmt.Errorf("%d setup issue(s) found", len(status.Issues))
		}
		return nil
	}

	written, err := setup.Register(setup.Options{
		ClientConfigPath: path,
		ServerName:       *name,
		BinaryPath:       *binary,
		ConfigFile:       *configFile,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Registered %s in %s\n", *name, written)
	return nil
}

// knowledgeBase loads the configured knowledge base without a cache
func (c *cli) knowledgeBase(ctx context.Context, f *commandFlags) (*knowledge.KnowledgeBase, error) {
	cfg, logger, err := c.load(f)
	if err != nil {
		return nil, err
	}
	cfg.Cache.Enabled = false

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	return a.Analysis.KnowledgeBase(), nil
}

func ignoreHelp(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeReport(out io.Writer, report *domain.AnalysisReport) error {
	fmt.Fprintf(out, "Patient: %s  Variants analyzed: %d\n", report.PatientID, report.VariantsAnalyzed)
	if len(report.Results) > 0 {
		parsing := report.Results[0].QualityMetrics.Parsing
		fmt.Fprintf(out, "Data lines: %d  Skipped: %d\n", parsing.DataLines, parsing.Dropped())
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DRUG\tGENE\tDIPLOTYPE\tPHENOTYPE\tRISK\tSEVERITY\tCONFIDENCE")
	for _, result := range report.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.3f\n",
			result.Drug,
			result.Profile.PrimaryGene,
			result.Profile.Diplotype,
			result.Profile.Phenotype,
			result.RiskAssessment.RiskLabel,
			result.RiskAssessment.Severity,
			result.RiskAssessment.ConfidenceScore,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	for _, result := range report.Results {
		fmt.Fprintf(out, "%s: %s\n", result.Drug, result.Explanation.Summary)
	}
	fmt.Fprintf(out, "\n%s\n", service.ClinicalNote)
	return nil
}
