// Package server is the JSON HTTP API used by the web frontend.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/config"
	"github.com/sertugser/assessai/internal/feedback"
	"github.com/sertugser/assessai/internal/logger"
	"github.com/sertugser/assessai/internal/metrics"
	"github.com/sertugser/assessai/internal/notify"
	"github.com/sertugser/assessai/internal/ocr"
)

// Deps are the collaborators the handlers call.
type Deps struct {
	Activities *activity.Registry
	Broker     notify.Broker
	Feedback   *feedback.Service
	OCR        *ocr.Service
	Metrics    *metrics.Metrics
	Log        *logger.Logger
}

// Server wires routes onto a gin engine.
type Server struct {
	cfg    config.ServerConfig
	ocrCfg config.OCRConfig
	deps   Deps
	log    *logger.Logger
	engine *gin.Engine

	heartbeat time.Duration
}

// New builds the engine and registers every route.
func New(cfg config.ServerConfig, ocrCfg config.OCRConfig, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.OCR == nil {
		deps.OCR = ocr.NewService(nil, ocrCfg.MaxUploadBytes)
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		cfg:       cfg,
		ocrCfg:    ocrCfg,
		deps:      deps,
		log:       deps.Log.With("component", "http"),
		engine:    gin.New(),
		heartbeat: 15 * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log), s.deps.Metrics.Middleware())
	r.Use(cors.New(s.corsConfig()))
	r.MaxMultipartMemory = s.deps.OCR.MaxBytes() + 1<<20

	r.GET("/healthz", s.health)
	r.GET("/metrics", s.deps.Metrics.Handler())

	api := r.Group("/api", userID())
	api.GET("/activities", s.listActivities)
	api.POST("/activities", s.createActivity)
	api.GET("/achievements", s.achievements)

	p := api.Group("/progress")
	p.GET("", s.snapshot)
	p.DELETE("", s.resetProgress)
	p.GET("/stats", s.stats)
	p.GET("/streak", s.streak)
	p.GET("/skills", s.skills)
	p.GET("/weaknesses", s.weaknesses)
	p.GET("/weekly", s.weekly)
	p.GET("/monthly", s.monthly)
	p.GET("/distribution", s.distribution)
	p.GET("/events", s.events)

	f := api.Group("/feedback")
	f.POST("/writing", s.writingFeedback)
	f.POST("/speaking", s.speakingFeedback)
	f.GET("/recommendations", s.recommendations)
	f.GET("/difficulty", s.difficulty)
	f.GET("/mistakes", s.mistakes)

	api.POST("/ocr", rateLimit(s.ocrCfg.RatePerMinute, s.ocrCfg.Burst), s.ocrUpload)
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "X-Requested-With", headerUserID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.cfg.AllowedOrigins
	cfg.AllowCredentials = true
	return cfg
}

// Handler returns the engine as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"ocr":      s.deps.OCR.Configured(),
		"feedback": s.deps.Feedback != nil && s.deps.Feedback.Available(),
	})
}
