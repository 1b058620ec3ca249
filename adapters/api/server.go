// Package api exposes pipeline runs over HTTP: a gin JSON API for executing
// and querying runs, and a chi ops mux for health and profiling endpoints.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"relpi/app"
	"relpi/domain/core"
	domreport "relpi/domain/report"
	"relpi/internal"
	"relpi/internal/errors"
	reportasm "relpi/internal/report"
	"relpi/ports"
)

// Server represents the pipeline API server
type Server struct {
	router  *gin.Engine
	service *app.PipelineService
	repo    ports.RunRepositoryPort
	log     *internal.Logger
}

// NewServer creates the API server and registers its routes
func NewServer(service *app.PipelineService, repo ports.RunRepositoryPort, log *internal.Logger) *Server {
	if log == nil {
		log = internal.DefaultLogger
	}
	s := &Server{
		router:  gin.Default(),
		service: service,
		repo:    repo,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/runs", s.handleExecuteRun)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
		api.GET("/runs/:id/report", s.handleGetReport)
		api.GET("/runs/:id/report.html", s.handleGetReportHTML)
	}
}

// Start runs the HTTP server on the given address, blocking
func (s *Server) Start(addr string) error {
	s.log.Info("API server listening on %s", addr)
	return s.router.Run(addr)
}

// handleExecuteRun runs the full pipeline synchronously and returns the
// assembled summary. Runs are minutes-scale at most on this deployment, so a
// blocking POST keeps the API honest about completion.
func (s *Server) handleExecuteRun(c *gin.Context) {
	summary, err := s.service.Execute(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := 20
	if v, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if s.repo == nil {
		s.renderError(c, errors.New(errors.CodeDatabaseError, "no run repository configured"))
		return
	}
	summaries, err := s.repo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": summaries, "count": len(summaries)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	summary, err := s.loadRun(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleGetReport(c *gin.Context) {
	summary, err := s.loadRun(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8",
		[]byte(reportasm.RenderMarkdown(summary)))
}

func (s *Server) handleGetReportHTML(c *gin.Context) {
	summary, err := s.loadRun(c)
	if err != nil {
		s.renderError(c, err)
		return
	}

	md := []byte(reportasm.RenderMarkdown(summary))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage,
		Title: "Pipeline run " + summary.RunID.String(),
	})
	c.Data(http.StatusOK, "text/html; charset=utf-8", markdown.ToHTML(md, p, renderer))
}

func (s *Server) loadRun(c *gin.Context) (*domreport.RunSummary, error) {
	if s.repo == nil {
		return nil, errors.New(errors.CodeDatabaseError, "no run repository configured")
	}
	runID, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		return nil, errors.NotFound("invalid run ID")
	}
	return s.repo.GetRun(c.Request.Context(), runID)
}

func (s *Server) renderError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeDatasetInvalid, errors.CodeConfigInvalid, errors.CodeInsufficientData:
		status = http.StatusUnprocessableEntity
	}
	s.log.Error("request failed: %v", err)
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
