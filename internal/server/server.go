// Package server exposes the harness over HTTP. Every endpoint wraps a
// pipeline operation; nothing here adds semantics of its own.
package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veridex/veridex/internal/history"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/pipeline"
)

// ErrorResponse is the JSON body for every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Server hosts the HTTP facade over the pipeline
type Server struct {
	pipeline *pipeline.Pipeline
	config   *model.Config
	engine   *gin.Engine
}

// New creates a server around an initialized pipeline
func New(p *pipeline.Pipeline, cfg *model.Config) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		pipeline: p,
		config:   cfg,
		engine:   engine,
	}
	s.routes()

	return s
}

// Engine returns the underlying gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves on the configured port until the listener fails
func (s *Server) Run() error {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}
	return s.engine.Run(":" + port)
}

func (s *Server) routes() {
	// Health stays outside auth so load balancers can always reach it
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/v1")
	if token := s.config.Server.AuthToken; token != "" {
		v1.Use(bearerAuth(token))
	}

	v1.POST("/tag", s.handleTag)
	v1.POST("/run", s.handleRun)
	v1.POST("/receipts/verify", s.handleReceiptVerify)
	v1.POST("/checkpoints/verify", s.handleCheckpointVerify)
	v1.GET("/history", s.handleHistoryList)
	v1.GET("/history/:id", s.handleHistoryGet)
}

// bearerAuth rejects requests without the expected bearer token
func bearerAuth(token string) gin.HandlerFunc {
	want := []byte("Bearer " + token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "missing or invalid bearer token",
				Code:  "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TagRequest is the body for POST /v1/tag
type TagRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "text is required",
			Code:  "EMPTY_TEXT",
		})
		return
	}

	c.JSON(http.StatusOK, s.pipeline.TagText(req.Text))
}

// RunRequest is the body for POST /v1/run
type RunRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "prompt is required",
			Code:  "EMPTY_PROMPT",
		})
		return
	}
	if s.pipeline.Provider() == "" {
		c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error: "no LLM provider configured",
			Code:  "NO_PROVIDER",
		})
		return
	}

	report, err := s.pipeline.Run(c.Request.Context(), req.Prompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "RUN_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ReceiptVerifyRequest is the body for POST /v1/receipts/verify
type ReceiptVerifyRequest struct {
	Receipt model.Receipt `json:"receipt"`
}

func (s *Server) handleReceiptVerify(c *gin.Context) {
	var req ReceiptVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	result, err := s.pipeline.VerifyReceipt(req.Receipt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "KEY_UNAVAILABLE",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckpointVerifyRequest is the body for POST /v1/checkpoints/verify
type CheckpointVerifyRequest struct {
	MasterReceipt model.MasterReceipt `json:"master_receipt"`
	EvidencePack  model.EvidencePack  `json:"evidence_pack"`
}

func (s *Server) handleCheckpointVerify(c *gin.Context) {
	var req CheckpointVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	c.JSON(http.StatusOK, s.pipeline.VerifyCheckpoint(req.MasterReceipt, req.EvidencePack))
}

func (s *Server) handleHistoryList(c *gin.Context) {
	store := s.pipeline.History()
	if store == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error: "history is disabled",
			Code:  "HISTORY_DISABLED",
		})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be a non-negative integer",
				Code:  "INVALID_LIMIT",
			})
			return
		}
		limit = n
	}

	records, err := store.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "HISTORY_READ_FAILED",
		})
		return
	}
	if records == nil {
		records = []history.RunRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) handleHistoryGet(c *gin.Context) {
	store := s.pipeline.History()
	if store == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error: "history is disabled",
			Code:  "HISTORY_DISABLED",
		})
		return
	}

	rec, err := store.Get(c.Param("id"))
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "HISTORY_READ_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, rec)
}
