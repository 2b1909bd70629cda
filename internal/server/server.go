// Package server exposes sessions over an HTTP JSON API for the browser front
// end.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/muhammadolammi/jobmatch/internal/resume"
	"github.com/muhammadolammi/jobmatch/internal/session"
)

type Config struct {
	// CORSOrigins lists the allowed browser origins. Empty allows all.
	CORSOrigins []string
}

type Handler struct {
	Sessions *session.Manager
	// Fetcher is nil when object storage is not configured.
	Fetcher resume.Fetcher
	Logger  *slog.Logger
}

// NewRouter builds the gin engine with every API route registered under /api/v1.
func NewRouter(cfg Config, h *Handler) *gin.Engine {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	h.Logger = h.Logger.With("component", "server")

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.Logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api/v1")
	{
		api.GET("/health", h.Health)

		api.POST("/sessions", h.CreateSession)

		s := api.Group("/sessions/:id", h.loadSession)
		s.GET("", h.GetSession)
		s.DELETE("", h.DeleteSession)

		s.POST("/jobs", h.AddJob)
		s.PUT("/jobs/:jobId", h.UpdateJob)
		s.DELETE("/jobs/:jobId", h.RemoveJob)

		s.PUT("/preferences", h.SetPreferences)
		s.PUT("/credential", h.SetCredential)

		s.PUT("/resume", h.SetResumeText)
		s.POST("/resume/upload", h.UploadResume)
		s.POST("/resume/object", h.LoadResumeObject)

		s.POST("/analyze", h.Analyze)
		s.POST("/reset", h.Reset)
		s.GET("/result", h.Result)

		s.GET("/evaluations/:jobId/cover-letter", h.export(session.ExportCoverLetter))
		s.GET("/evaluations/:jobId/tailored-resume", h.export(session.ExportTailoredResume))
	}
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
