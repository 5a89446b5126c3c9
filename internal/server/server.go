package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/stapsync/internal/origin"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	Addr string

	// Mode is the gin mode (debug, release, test). Empty leaves the
	// current mode unchanged.
	Mode string

	Store  EntityStore
	Logger *slog.Logger
	Units  origin.UnitGenerator
}

// Server serves the entity API.
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

// New builds the router and its middleware chain.
func New(cfg Config) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	units := cfg.Units
	if units == nil {
		units = origin.UUIDv7Generator{}
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestUnit(units), RequestLogger(logger), SyncSource())

	router.GET("/healthz", HealthHandler())

	api := router.Group("/api")
	{
		api.GET("/stapmodels", ListEntitiesHandler(cfg.Store))
		api.POST("/stapmodels", CreateEntityHandler(cfg.Store))
		api.GET("/stapmodels/:id", GetEntityHandler(cfg.Store))
		api.PUT("/stapmodels/:id", UpdateEntityHandler(cfg.Store))
		api.PATCH("/stapmodels/:id", UpdateEntityHandler(cfg.Store))
		api.DELETE("/stapmodels/:id", DeleteEntityHandler(cfg.Store))
	}

	return &Server{
		router: router,
		http:   &http.Server{Addr: cfg.Addr, Handler: router},
		logger: logger,
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}
