// Package mcp exposes the analysis engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/service"
)

const (
	defaultServerName    = "pharmaguard-mcp-server"
	defaultServerVersion = "v0.1.0"
	transportStdio       = "stdio"
)

// Server represents the PharmaGuard MCP server
type Server struct {
	config    domain.MCPConfig
	analysis  *service.AnalysisService
	mcpServer *mcp.Server
	logger    *logrus.Logger
}

// NewServer creates a new MCP server with every tool registered
func NewServer(cfg domain.MCPConfig, analysis *service.AnalysisService, logger *logrus.Logger) *Server {
	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	if serverInfo.Name == "" {
		serverInfo.Name = defaultServerName
	}
	if serverInfo.Version == "" {
		serverInfo.Version = defaultServerVersion
	}

	server := &Server{
		config:    cfg,
		analysis:  analysis,
		mcpServer: mcp.NewServer(serverInfo, nil),
		logger:    logger,
	}
	server.registerTools()

	return server
}

// Start serves MCP requests until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	if s.config.TransportType != "" && s.config.TransportType != transportStdio {
		s.logger.WithField("transport_type", s.config.TransportType).Warn("Unsupported MCP transport, using stdio")
	}

	s.logger.WithField("tools", len(toolNames)).Info("Starting PharmaGuard MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Tool names
const (
	ToolParseVCF           = "parse_vcf"
	ToolBuildPharmaProfile = "build_pharma_profile"
	ToolAnalyze            = "analyze_pharmacogenomics"
	ToolListSupportedDrugs = "list_supported_drugs"
)

var toolNames = []string{ToolParseVCF, ToolBuildPharmaProfile, ToolAnalyze, ToolListSupportedDrugs}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolParseVCF,
		Description: "Parse VCF text and return the usable variant records (rsid, gene, genotype, position).",
	}, s.handleParseVCF)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolBuildPharmaProfile,
		Description: "Build the pharmacogenomic profile (diplotype, phenotype, confidence, risk level) of one drug from VCF text.",
	}, s.handleBuildPharmaProfile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolAnalyze,
		Description: "Analyze VCF text against one or more drugs and return risk assessments with clinical recommendations.",
	}, s.handleAnalyze)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListSupportedDrugs,
		Description: "List the drugs with a pharmacogenomic rule, their primary gene and CPIC evidence level.",
	}, s.handleListSupportedDrugs)

	s.logger.WithField("tool_count", len(toolNames)).Debug("Registered MCP tools")
}
