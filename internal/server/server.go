// internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"provider-workflow/internal/common/config"
	"provider-workflow/internal/common/logger"
	"provider-workflow/internal/common/observability"
	"provider-workflow/internal/models"
	"provider-workflow/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server owns the HTTP surface of the review workflow.
type Server struct {
	cfg    *config.Config
	engine *workflow.Engine
	logger logger.Logger
	obs    *observability.Observability
	http   *http.Server
}

func New(cfg *config.Config, engine *workflow.Engine, log logger.Logger, obs *observability.Observability) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		logger: log,
		obs:    obs,
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	if obs != nil {
		router.Use(Instrument(obs))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	secret := cfg.Auth.JWTSecret

	api := router.Group("/api")
	{
		apps := api.Group("/applications", AuthMiddleware(secret))
		apps.POST("", s.submitApplication)
		apps.GET("/my-status", s.myStatus)

		admin := api.Group("/admin/applications", AuthMiddleware(secret, models.RoleAdmin))
		admin.GET("", s.listApplications)
		admin.PUT("/:id/approve", s.approveApplication)
		admin.PUT("/:id/reject", s.rejectApplication)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.RequestTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Millisecond,
	}

	return s
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.http.Addr,
	})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
