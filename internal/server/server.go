// Package server exposes the report collection API and dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iksnae/session-report/internal"
	"github.com/iksnae/session-report/internal/dashboard"
)

// Options configures a Server
type Options struct {
	MaxBodyBytes    int64
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// OptionsFromConfig builds Options from the server section of the config
func OptionsFromConfig(cfg internal.ServerConfig) Options {
	return Options{
		MaxBodyBytes:    cfg.MaxBodyBytes,
		CORSOrigins:     cfg.CORSOrigins,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Server serves the JSON API and the dashboard pages
type Server struct {
	store   internal.ReportStore
	pages   *dashboard.Renderer
	opts    Options
	now     func() time.Time
	log     *logrus.Entry
	handler http.Handler
}

// New creates a server backed by store
func New(store internal.ReportStore, opts Options) (*Server, error) {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = internal.DefaultMaxBodyBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	pages, err := dashboard.New()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store: store,
		pages: pages,
		opts:  opts,
		now:   time.Now,
		log:   internal.NewLogger("server"),
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/report", s.handleSubmit)
	mux.HandleFunc("GET /api/reports", s.handleList)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/reports/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/reports/{id}/download", s.handleDownload)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /{$}", s.handleIndexPage)
	mux.HandleFunc("GET /reports/{id}", s.handleDetailPage)
	mux.HandleFunc("POST /reports/{id}/delete", s.handleDeletePage)

	var h http.Handler = mux
	h = limitBody(h, s.opts.MaxBodyBytes)
	h = corsHandler(s.opts.CORSOrigins).Handler(h)
	h = s.recoverPanics(h)
	h = s.accessLog(h)
	h = withRequestID(h)
	return h
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the configured timeout
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logBanner(ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logBanner(addr string) {
	base := "http://" + addr
	if host, port, err := net.SplitHostPort(addr); err == nil && (host == "" || host == "::" || host == "0.0.0.0") {
		base = "http://localhost:" + port
	}
	s.log.WithFields(logrus.Fields{
		"dashboard": base + "/",
		"api":       base + "/api/report",
	}).Info("Session report receiver running")
}
