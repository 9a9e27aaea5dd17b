// Package server exposes mind maps, categories and reports over HTTP.
package server

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reflectai/reflectai/internal/editor"
	"github.com/reflectai/reflectai/internal/metrics"
	"github.com/reflectai/reflectai/internal/notify"
	"github.com/reflectai/reflectai/internal/report"
	"github.com/reflectai/reflectai/internal/treestore"
)

// shutdownTimeout bounds graceful shutdown, including the final flush of
// pending tree saves.
const shutdownTimeout = 15 * time.Second

// Opts holds the server's dependencies.
type Opts struct {
	DB       *gorm.DB
	Registry *editor.Registry
	Trees    *treestore.Store
	Reports  *report.Generator // optional; report routes answer 503 without it
	Notifier notify.Notifier   // optional
	Metrics  *metrics.Metrics  // optional
	Logger   *zap.Logger
	Port     int
	Out      io.Writer
}

// Server is the HTTP front of ReflectAI.
type Server struct {
	db       *gorm.DB
	registry *editor.Registry
	trees    *treestore.Store
	reports  *report.Generator
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
	router   *gin.Engine
}

// New builds the router and registers every route.
func New(opts Opts) (*Server, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("server: registry is required")
	}
	if opts.Trees == nil {
		return nil, fmt.Errorf("server: tree store is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}

	s := &Server{
		db:       opts.DB,
		registry: opts.Registry,
		trees:    opts.Trees,
		reports:  opts.Reports,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), accessLog(s.log), countRequests(s.metrics))

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	s.router = router
	s.registerRoutes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully and flushes every open tree.
func Start(ctx context.Context, opts Opts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	gin.SetMode(gin.ReleaseMode)

	s, err := New(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		if err := s.registry.Close(shutdownCtx); err != nil {
			s.log.Warn("flush trees on shutdown", zap.Error(err))
		}
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "ReflectAI running at http://localhost:%d\n", opts.Port)
	}
	s.log.Info("http server listening", zap.Int("port", opts.Port))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	<-done
	return nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
