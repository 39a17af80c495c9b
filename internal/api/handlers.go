package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pharmaguard-engine/internal/domain"
	"github.com/pharmaguard-engine/internal/logging"
	"github.com/pharmaguard-engine/internal/middleware"
	"github.com/pharmaguard-engine/internal/service"
)

// jsonOverhead leaves room for the envelope around an inline VCF body
const jsonOverhead = 64 * 1024

// ParseRequest carries inline VCF content
type ParseRequest struct {
	VCFContent string `json:"vcf_content" binding:"required"`
}

// ParseResponse lists the usable records found in the content
type ParseResponse struct {
	Variants []domain.VariantRecord `json:"variants"`
	Count    int                    `json:"count"`
	Stats    domain.ParseStats      `json:"stats"`
}

// ProfileRequest asks for a single drug profile
type ProfileRequest struct {
	VCFContent string `json:"vcf_content" binding:"required"`
	Drug       string `json:"drug" binding:"required"`
}

// AnalyzeRequest is the JSON form of an analysis request
type AnalyzeRequest struct {
	VCFContent string   `json:"vcf_content" binding:"required"`
	Drugs      []string `json:"drugs" binding:"required"`
}

// DrugInfo describes one supported drug
type DrugInfo struct {
	Drug     string               `json:"drug"`
	Gene     string               `json:"gene"`
	Evidence domain.EvidenceLevel `json:"cpic_evidence"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":          status,
		"timestamp":       time.Now().UTC(),
		"version":         s.configManager.GetConfig().MCP.ServerVersion,
		"supported_drugs": len(s.analysis.KnowledgeBase().SupportedDrugs()),
		"checks":          checks,
	})
}

func (s *Server) handleListDrugs(c *gin.Context) {
	kb := s.analysis.KnowledgeBase()
	drugs := make([]DrugInfo, 0, len(kb.SupportedDrugs()))
	for _, name := range kb.SupportedDrugs() {
		rule, err := kb.DrugRule(name)
		if err != nil {
			s.renderError(c, err)
			return
		}
		drugs = append(drugs, DrugInfo{Drug: name, Gene: rule.Gene, Evidence: rule.Evidence})
	}
	c.JSON(http.StatusOK, gin.H{"drugs": drugs, "count": len(drugs)})
}

func (s *Server) handleListGenes(c *gin.Context) {
	genes := s.analysis.KnowledgeBase().SupportedGenes()
	c.JSON(http.StatusOK, gin.H{"genes": genes, "count": len(genes)})
}

func (s *Server) handleParseVariants(c *gin.Context) {
	var req ParseRequest
	if !s.bindJSON(c, &req) {
		return
	}

	records, stats := s.analysis.ParseVariants(req.VCFContent)
	c.JSON(http.StatusOK, ParseResponse{Variants: records, Count: len(records), Stats: stats})
}

func (s *Server) handleBuildProfile(c *gin.Context) {
	var req ProfileRequest
	if !s.bindJSON(c, &req) {
		return
	}

	profile, err := s.analysis.BuildProfile(c.Request.Context(), req.VCFContent, req.Drug)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleAnalyze accepts either JSON or a multipart upload with a vcf_file
// part and a comma separated drugs field
func (s *Server) handleAnalyze(c *gin.Context) {
	var req service.AnalyzeRequest

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		content, err := s.readUpload(c)
		if err != nil {
			s.renderError(c, err)
			return
		}
		req.VCF = content
		for _, field := range c.PostFormArray("drugs") {
			req.Drugs = append(req.Drugs, service.SplitDrugList(field)...)
		}
	} else {
		var body AnalyzeRequest
		if !s.bindJSON(c, &body) {
			return
		}
		req.VCF = body.VCFContent
		req.Drugs = body.Drugs
	}

	report, err := s.analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) readUpload(c *gin.Context) (string, error) {
	limit := maxUploadBytes(s.configManager.GetConfig().Server)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+jsonOverhead)

	header, err := c.FormFile("vcf_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", domain.NewValidationError("vcf_file", fmt.Sprintf("upload exceeds %d bytes", limit), limit)
		}
		return "", domain.NewValidationError("vcf_file", "vcf_file is required", nil)
	}
	if err := service.ValidateVCFUpload(header.Filename, header.Size, limit); err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// bindJSON decodes a size-limited JSON body and renders the 400 itself
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	limit := maxUploadBytes(s.configManager.GetConfig().Server) + jsonOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	if err := c.ShouldBindJSON(dst); err != nil {
		message := "Invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			message = "Request body too large"
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput,
			message,
			err.Error(),
			c.GetString(middleware.CorrelationIDKey),
		))
		return false
	}
	return true
}

// renderError maps engine errors onto the APIError envelope
func (s *Server) renderError(c *gin.Context, err error) {
	requestID := c.GetString(middleware.CorrelationIDKey)

	if domain.IsClientError(err) {
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrorCodeFor(err),
			err.Error(),
			"",
			requestID,
		))
		return
	}

	logging.FromContext(c.Request.Context(), s.logger).WithError(err).
		WithField("path", c.Request.URL.Path).Error("Request failed")

	c.AbortWithStatusJSON(http.StatusInternalServerError, domain.NewAPIError(
		domain.ErrCodeInternalServer,
		"Internal server error",
		"",
		requestID,
	))
}
