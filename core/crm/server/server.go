// Package server exposes the CRM over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/koscakluka/ema-live/core/crm"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultAddr     = ":8001"
	shutdownTimeout = 5 * time.Second
)

// StartOpts holds configuration for the CRM server.
type StartOpts struct {
	Service *crm.Service
	Addr    string
	Out     io.Writer
	Logger  *slog.Logger
}

// Start launches the CRM HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Service == nil {
		return fmt.Errorf("crm server: service is required")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = otelslog.NewLogger("github.com/koscakluka/ema-live/core/crm/server")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: otelhttp.NewHandler(NewRouter(opts.Service), "crm"),
	}

	go func() {
		<-ctx.Done()
		shutdown(srv, shutdownTimeout, opts.Logger)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "CRM running at http://localhost%s\n", opts.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("crm server: %w", err)
	}
	return nil
}

// NewRouter builds the CRM routes on a fresh gin engine.
func NewRouter(service *crm.Service) *gin.Engine {
	router := gin.New()
	// Lead ids are path-escaped by clients and may contain '/'.
	router.UseRawPath = true
	router.Use(gin.Recovery())
	registerRoutes(router, service)
	return router
}

// shutdown stops srv, waiting at most timeout for in-flight requests.
func shutdown(srv *http.Server, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("crm server shutdown failed", "addr", srv.Addr, "error", err)
		return err
	}
	return nil
}
