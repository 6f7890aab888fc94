// Package ui serves the run browser: a list of stored discovery runs and
// their rendered reports.
package ui

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gocausal/app"
	"gocausal/domain/core"
	"gocausal/internal"
	"gocausal/internal/errors"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Server is the gin web server over a discovery service.
type Server struct {
	router *gin.Engine
	svc    *app.DiscoveryService
	logger *internal.Logger
}

// NewServer builds the server and its routes. mode is the gin mode
// ("debug", "release", "test").
func NewServer(svc *app.DiscoveryService, logger *internal.Logger, mode string) (*Server, error) {
	if mode != "" {
		gin.SetMode(mode)
	}
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse ui templates")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	s := &Server{router: router, svc: svc, logger: logger.WithComponent("ui")}
	router.GET("/", s.handleRuns)
	router.GET("/runs/:id", s.handleRun)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return s, nil
}

// Run starts the HTTP server on the given port.
func (s *Server) Run(port string) error {
	s.logger.Info("run browser listening on :%s", port)
	return s.router.Run(":" + port)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	summaries, err := s.svc.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("list runs: %v", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "could not load runs"})
		return
	}
	c.HTML(http.StatusOK, "runs.html", gin.H{"Runs": summaries})
}

func (s *Server) handleRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"Message": "invalid run id"})
		return
	}
	rec, err := s.svc.Get(c.Request.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "run not found"})
			return
		}
		s.logger.Error("get run %s: %v", id, err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "could not load run"})
		return
	}
	c.HTML(http.StatusOK, "run.html", gin.H{
		"Run":    rec,
		"Report": RenderMarkdown(rec.Report),
	})
}
