package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/logging"
	"github.com/pharmaguard-engine/internal/service"
)

// ParseVCFParams defines parameters for the parse_vcf tool
type ParseVCFParams struct {
	VCFContent string `json:"vcf_content" jsonschema:"VCF file content as text"`
}

// ParseVCFResult defines the result structure for the parse_vcf tool
type ParseVCFResult struct {
	Variants []domain.VariantRecord `json:"variants"`
	Count    int                    `json:"count"`
	Stats    domain.ParseStats      `json:"stats"`
}

// BuildProfileParams defines parameters for the build_pharma_profile tool
type BuildProfileParams struct {
	VCFContent string `json:"vcf_content" jsonschema:"VCF file content as text"`
	Drug       string `json:"drug" jsonschema:"drug name, case-insensitive"`
}

// AnalyzeParams defines parameters for the analyze_pharmacogenomics tool
type AnalyzeParams struct {
	VCFContent string   `json:"vcf_content" jsonschema:"VCF file content as text"`
	Drugs      []string `json:"drugs" jsonschema:"drug names to analyze"`
}

// ListDrugsParams is empty; the tool takes no arguments
type ListDrugsParams struct{}

// SupportedDrug describes one supported drug
type SupportedDrug struct {
	Drug     string               `json:"drug"`
	Gene     string               `json:"gene"`
	Evidence domain.EvidenceLevel `json:"cpic_evidence"`
}

// ListDrugsResult defines the result structure for the list_supported_drugs tool
type ListDrugsResult struct {
	Drugs []SupportedDrug `json:"drugs"`
}

func (s *Server) handleParseVCF(ctx context.Context, req *mcp.CallToolRequest, params ParseVCFParams) (*mcp.CallToolResult, any, error) {
	s.toolLogger(ctx, ToolParseVCF).Info("Tool invoked")

	if strings.TrimSpace(params.VCFContent) == "" {
		return createErrorResult("Missing required parameter", fmt.Errorf("vcf_content is required")), nil, nil
	}

	records, stats := s.analysis.ParseVariants(params.VCFContent)
	result := ParseVCFResult{Variants: records, Count: len(records), Stats: stats}

	summary := fmt.Sprintf("Parsed %d usable variant(s) from %d data line(s)", len(records), stats.DataLines)
	return jsonResult(summary, result), result, nil
}

func (s *Server) handleBuildPharmaProfile(ctx context.Context, req *mcp.CallToolRequest, params BuildProfileParams) (*mcp.CallToolResult, any, error) {
	s.toolLogger(ctx, ToolBuildPharmaProfile).WithField("drug", params.Drug).Info("Tool invoked")

	if strings.TrimSpace(params.Drug) == "" {
		return createErrorResult("Missing required parameter", fmt.Errorf("drug is required")), nil, nil
	}

	profile, err := s.analysis.BuildProfile(ctx, params.VCFContent, params.Drug)
	if err != nil {
		return s.failure(ctx, ToolBuildPharmaProfile, err), nil, nil
	}

	summary := fmt.Sprintf("%s: %s %s (%s risk, confidence %.3f)",
		strings.ToUpper(strings.TrimSpace(params.Drug)), profile.PrimaryGene, profile.Phenotype, profile.RiskLevel, profile.Confidence)
	return jsonResult(summary, profile), profile, nil
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, params AnalyzeParams) (*mcp.CallToolResult, any, error) {
	s.toolLogger(ctx, ToolAnalyze).WithField("drugs", params.Drugs).Info("Tool invoked")

	report, err := s.analysis.Analyze(ctx, service.AnalyzeRequest{VCF: params.VCFContent, Drugs: params.Drugs})
	if err != nil {
		return s.failure(ctx, ToolAnalyze, err), nil, nil
	}

	lines := make([]string, 0, len(report.Results))
	for _, result := range report.Results {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", result.Drug, result.RiskAssessment.RiskLabel, result.RiskAssessment.Severity))
	}
	summary := fmt.Sprintf("Analysis %s completed: %s", report.PatientID, strings.Join(lines, "; "))
	return jsonResult(summary, report), report, nil
}

func (s *Server) handleListSupportedDrugs(ctx context.Context, req *mcp.CallToolRequest, _ ListDrugsParams) (*mcp.CallToolResult, any, error) {
	kb := s.analysis.KnowledgeBase()

	result := ListDrugsResult{Drugs: make([]SupportedDrug, 0, len(kb.SupportedDrugs()))}
	for _, name := range kb.SupportedDrugs() {
		rule, err := kb.DrugRule(name)
		if err != nil {
			return s.failure(ctx, ToolListSupportedDrugs, err), nil, nil
		}
		result.Drugs = append(result.Drugs, SupportedDrug{Drug: name, Gene: rule.Gene, Evidence: rule.Evidence})
	}

	return jsonResult(fmt.Sprintf("%d supported drug(s)", len(result.Drugs)), result), result, nil
}

func (s *Server) toolLogger(ctx context.Context, tool string) *logrus.Entry {
	return logging.FromContext(ctx, s.logger).WithField("tool", tool)
}

// failure renders err as a tool error; internal errors are logged and
// hidden from the client
func (s *Server) failure(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	code := domain.ErrorCodeFor(err)
	if domain.IsClientError(err) {
		return createErrorResult(code, err)
	}

	s.toolLogger(ctx, tool).WithError(err).Error("Tool failed")
	return createErrorResult(code, fmt.Errorf("internal error"))
}

// jsonResult pairs a one-line summary with the JSON encoded payload
func jsonResult(summary string, payload any) *mcp.CallToolResult {
	content := []mcp.Content{&mcp.TextContent{Text: summary}}
	if data, err := json.MarshalIndent(payload, "", "  "); err == nil {
		content = append(content, &mcp.TextContent{Text: string(data)})
	}
	return &mcp.CallToolResult{Content: content}
}

// createErrorResult creates a standardized error result for tool calls
func createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
