package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/internal/orchestrator"
	"darkpattern-scanner/internal/storage"
	"darkpattern-scanner/pkg/models"
)

// Server represents the API server
type Server struct {
	config       *models.Config
	store        models.SessionStore
	orchestrator *orchestrator.Orchestrator
	monitor      *monitor.Monitor
	httpServer   *http.Server
	logger       zerolog.Logger
}

// NewServer creates a new API server
func NewServer(cfg *models.Config, store models.SessionStore, orch *orchestrator.Orchestrator, mon *monitor.Monitor, logger zerolog.Logger) *Server {
	// Set Gin mode
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		config:       cfg,
		store:        store,
		orchestrator: orch,
		monitor:      mon,
		logger:       logger.With().Str("component", "server").Logger(),
	}
}

// Start starts the API server
func (s *Server) Start() error {
	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())

	// Setup routes
	s.setupRoutes(router)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
	}

	// Start server
	go func() {
		s.logger.Info().Str("address", s.httpServer.Addr).Msg("Starting API server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("Error starting server")
		}
	}()

	return nil
}

// Stop stops the API server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server...")

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.monitor != nil {
		s.monitor.Stop()
	}

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down server")
		return err
	}

	s.logger.Info().Msg("API server stopped")
	return nil
}

// setupRoutes sets up the API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/health", s.healthCheck)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", s.analyze)

		sessions := v1.Group("/sessions")
		{
			sessions.GET("", s.listSessions)
			sessions.GET("/:name", s.getSession)
			sessions.DELETE("/:name", s.deleteSession)
		}
	}
}

// Health check handler
func (s *Server) healthCheck(c *gin.Context) {
	status := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
	}
	if s.monitor != nil {
		status["system"] = s.monitor.HealthCheck()
	}
	c.JSON(http.StatusOK, status)
}

// Analyze handler runs a batch synchronously and optionally saves the
// result under a session name.
func (s *Server) analyze(c *gin.Context) {
	var req struct {
		Mode            string   `json:"mode" binding:"required"`
		Inputs          []string `json:"inputs" binding:"required"`
		Platforms       []string `json:"platforms"`
		MaxResults      int      `json:"max_results"`
		ExcludeCreators []string `json:"exclude_creators"`
		SessionName     string   `json:"session_name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := models.SearchMode(req.Mode)
	if mode != models.ModeURL && mode != models.ModeKeyword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'url' or 'keyword'"})
		return
	}

	platforms := make([]models.Platform, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		platforms = append(platforms, models.Platform(p))
	}

	batch := s.orchestrator.Run(c.Request.Context(), models.SearchRequest{
		Mode:            mode,
		Inputs:          req.Inputs,
		Platforms:       platforms,
		MaxResults:      req.MaxResults,
		ExcludeCreators: req.ExcludeCreators,
	})

	if req.SessionName != "" {
		platform := "all"
		if len(platforms) == 1 {
			platform = string(platforms[0])
		}
		session, err := storage.SnapshotSession(req.SessionName, req.Mode, platform, batch)
		if err == nil {
			err = s.store.SaveSession(session)
		}
		if err != nil {
			s.logger.Error().Err(err).Str("session", req.SessionName).Msg("Failed to save session")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(batch.Records),
		"batch": batch,
	})
}

// List sessions handler
func (s *Server) listSessions(c *gin.Context) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// Get session handler
func (s *Server) getSession(c *gin.Context) {
	name := c.Param("name")

	session, err := s.store.GetSession(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// Delete session handler
func (s *Server) deleteSession(c *gin.Context) {
	name := c.Param("name")

	session, err := s.store.GetSession(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	if err := s.store.DeleteSession(name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// CORS middleware
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Run runs the server with signal handling
func (s *Server) Run() error {
	// Start server
	if err := s.Start(); err != nil {
		return err
	}

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for signal
	<-sigChan

	// Stop server
	return s.Stop()
}
