// Package api exposes the stored jobs over a small JSON HTTP API.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/XploY04/jobs.ai/internal/ingest"
	"github.com/XploY04/jobs.ai/internal/model"
)

const (
	defaultPageSize = 50
	minSearchLen    = 2
)

// Server holds the API handlers and their dependencies.
type Server struct {
	store       model.JobStore
	coordinator *ingest.Coordinator
	logger      *slog.Logger
}

func NewServer(store model.JobStore, coordinator *ingest.Coordinator, logger *slog.Logger) *Server {
	return &Server{store: store, coordinator: coordinator, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", s.health)
	apiGroup.GET("/jobs", s.listJobs)
	apiGroup.GET("/jobs/:id", s.getJob)
	apiGroup.GET("/filters", s.filterOptions)
	apiGroup.POST("/jobs/ingest", s.triggerIngest)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listJobs(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs, err := s.store.ListJobs(c.Request.Context(), q)
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}
	total, err := s.store.CountJobs(c.Request.Context(), q)
	if err != nil {
		s.logger.Error("failed to count jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	if jobs == nil {
		jobs = []model.Job{}
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("failed to get job", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) filterOptions(c *gin.Context) {
	options, err := s.store.FilterOptions(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to load filter options", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load filter options"})
		return
	}
	c.JSON(http.StatusOK, options)
}

// triggerIngest runs one ingestion cycle synchronously and returns its
// summary. Meant for operators and tests, not for high-frequency use; the
// scheduler skips a cycle that overlaps this one.
func (s *Server) triggerIngest(c *gin.Context) {
	if s.coordinator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion is not configured"})
		return
	}
	summary := s.coordinator.RunCycle(c.Request.Context())
	c.JSON(http.StatusOK, summary)
}

func parseListQuery(c *gin.Context) (model.ListQuery, error) {
	q := model.ListQuery{Limit: defaultPageSize}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > model.MaxPageSize {
			return q, errors.New("limit must be an integer between 1 and 200")
		}
		q.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return q, errors.New("offset must be a non-negative integer")
		}
		q.Offset = offset
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		if len(v) < minSearchLen {
			return q, errors.New("search needs at least 2 characters")
		}
		q.Search = v
	}
	if v := c.Query("source"); v != "" {
		q.Sources = splitParam(v)
	}
	if v := c.Query("seniority"); v != "" {
		q.Seniority = splitParam(v)
	}
	if v := c.Query("category"); v != "" {
		q.Category = splitParam(v)
	}
	q.EmploymentType = c.Query("employment_type")
	q.RemoteOnly = c.Query("remote_only") == "true"

	return q, nil
}

func splitParam(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
