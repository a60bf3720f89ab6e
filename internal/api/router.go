package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"TrendPress/internal/logging"
	"TrendPress/internal/ports"
	"TrendPress/internal/usecase"
)

const defaultHistoryLimit = 50

// SummaryReader loads the last persisted run summary.
type SummaryReader interface {
	ReadSummary() (json.RawMessage, error)
}

// Server exposes the pipeline runner over HTTP.
type Server struct {
	ctx     context.Context
	runner  *usecase.Runner
	results SummaryReader
	history ports.OutcomeRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewServer builds the handlers. Runs started over HTTP inherit ctx, not the request context.
func NewServer(ctx context.Context, runner *usecase.Runner, results SummaryReader, history ports.OutcomeRepository, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	return &Server{
		ctx:     ctx,
		runner:  runner,
		results: results,
		history: history,
		logger:  log,
		now:     time.Now,
	}
}

// RegisterRoutes mounts the pipeline endpoints on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	g := r.Group("/trend-news")
	{
		g.POST("", s.start)
		g.GET("/status", s.status)
		g.GET("/results", s.lastResults)
		g.GET("/history", s.listHistory)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": s.now().UTC()})
}

func (s *Server) start(c *gin.Context) {
	startedAt, err := s.runner.Start(s.ctx)
	if errors.Is(err, usecase.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{
			"status":  "error",
			"message": "pipeline is already running",
		})
		return
	}
	if err != nil {
		s.logger.Error("pipeline not started", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "started",
		"message":    "pipeline started in background",
		"started_at": startedAt.UTC(),
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Status())
}

func (s *Server) lastResults(c *gin.Context) {
	if s.results != nil {
		raw, err := s.results.ReadSummary()
		if err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
			return
		}
		s.logger.Debug("results file unavailable", "error", err)
	}

	if summary, ok := s.runner.LastSummary(); ok {
		c.JSON(http.StatusOK, summary)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "no results available"})
}

func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "history is not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}

	outcomes, err := s.history.RecentOutcomes(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": outcomes})
}
