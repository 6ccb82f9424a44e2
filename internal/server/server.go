// Package server exposes a remote.Service over HTTP: REST for reads and
// writes, server-sent events for change notifications.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/remote"
)

const maxBodySize = 1 << 20 // 1MB

// Server is the pmdash data service HTTP front end.
type Server struct {
	svc       remote.Service
	router    *gin.Engine
	logger    *slog.Logger
	heartbeat time.Duration
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option { return func(s *Server) { s.logger = logger } }

// WithHeartbeat sets the interval of keep-alive comments on change streams.
func WithHeartbeat(d time.Duration) Option { return func(s *Server) { s.heartbeat = d } }

func New(svc remote.Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    slog.New(slog.DiscardHandler),
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.router = router

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api/tenants/:tenant")
	{
		api.GET("/projects", s.handleGetProjects)
		api.PUT("/projects/:project/:kind/:id", s.handleUpsert)
		api.DELETE("/projects/:project/:kind/:id", s.handleDelete)
		api.GET("/changes", s.handleChanges)
	}

	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("data service listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGetProjects(c *gin.Context) {
	projects, err := s.svc.GetAllProjects(c.Request.Context(), c.Param("tenant"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleUpsert(c *gin.Context) {
	kind, ok := s.kindParam(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
		return
	}
	if len(body) > maxBodySize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body exceeds maximum size of 1MB", "code": "too_large"})
		return
	}

	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is not valid JSON", "code": "bad_request"})
		return
	}
	if kind.IsCollection() {
		id, err := domain.RecordID(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
			return
		}
		if id != c.Param("id") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body id does not match path", "code": "id_mismatch"})
			return
		}
	}

	if err := s.svc.UpsertEntity(c.Request.Context(), c.Param("tenant"), c.Param("project"), kind, json.RawMessage(body)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDelete(c *gin.Context) {
	kind, ok := s.kindParam(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteEntity(c.Request.Context(), c.Param("tenant"), c.Param("project"), kind, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleChanges(c *gin.Context) {
	var tables []domain.EntityType
	for _, t := range c.QueryArray("table") {
		kind, ok := domain.ParseEntityType(t)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown entity type %q", t), "code": "unknown_entity_type"})
			return
		}
		tables = append(tables, kind)
	}

	ctx := c.Request.Context()
	changes := make(chan remote.Change, 16)
	sub, err := s.svc.Subscribe(ctx, c.Param("tenant"), tables, func(ch remote.Change) {
		select {
		case changes <- ch:
		default:
		}
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	_, _ = io.WriteString(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ch := <-changes:
			c.SSEvent("change", ch)
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})
}

func (s *Server) kindParam(c *gin.Context) (domain.EntityType, bool) {
	kind, ok := domain.ParseEntityType(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown entity type %q", c.Param("kind")), "code": "unknown_entity_type"})
		return "", false
	}
	return kind, true
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, remote.ErrUnknownEntityType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "unknown_entity_type"})
	case errors.Is(err, remote.ErrMissingEntityID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "missing_entity_id"})
	case errors.Is(err, remote.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "project_not_found"})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "internal"})
	}
}
