// Package api serves the engine over HTTP with gin.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"abkit/domain/experiment"
	"abkit/internal"
	"abkit/internal/abtest"
	"abkit/internal/batch"
	"abkit/internal/metrics"
	"abkit/ports"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the server needs. UI is optional and mounted
// under /reports.
type Deps struct {
	Engine    *abtest.Engine
	Evaluator *batch.Evaluator
	Repo      ports.ExperimentRepository
	Defaults  experiment.TestParameters
	Logger    *internal.Logger
	UI        http.Handler
	Metrics   bool
	StoreName string
}

// Server owns the gin router.
type Server struct {
	engine    *abtest.Engine
	evaluator *batch.Evaluator
	repo      ports.ExperimentRepository
	defaults  experiment.TestParameters
	logger    *internal.Logger
	storeName string
	router    *gin.Engine
}

// NewServer builds the router.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		engine:    d.Engine,
		evaluator: d.Evaluator,
		repo:      d.Repo,
		defaults:  d.Defaults,
		logger:    logger.Named("api"),
		storeName: d.StoreName,
		router:    gin.New(),
	}

	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes(d)
	return s
}

func (s *Server) setupRoutes(d Deps) {
	s.router.GET("/healthz", s.handleHealth)
	if d.Metrics {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	v1.POST("/sample-size/means", s.handleSampleSizeMeans)
	v1.POST("/sample-size/proportions", s.handleSampleSizeProportions)
	v1.POST("/compare/means", s.handleCompareMeans)
	v1.POST("/compare/proportions", s.handleCompareProportions)
	v1.POST("/batch", s.handleBatch)
	v1.GET("/experiments", s.handleListExperiments)
	v1.GET("/experiments/:id", s.handleGetExperiment)

	if d.UI != nil {
		reports := gin.WrapH(http.StripPrefix("/reports", d.UI))
		s.router.GET("/reports/*path", reports)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down (timeout %v)", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": s.storeName})
}
