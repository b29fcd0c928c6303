// Package server exposes the scan pipeline over HTTP: upload endpoints,
// stored scan access, Prometheus metrics and a WebSocket progress stream.
package server

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scanforge/scanforge/internal/classify"
	"github.com/scanforge/scanforge/internal/fields"
	"github.com/scanforge/scanforge/internal/pipeline"
	"github.com/scanforge/scanforge/internal/storage"
)

// documentPipeline is the slice of the pipeline the server needs.
type documentPipeline interface {
	ProcessImage(ctx context.Context, img image.Image) (*pipeline.DocumentResult, error)
	ProcessPDF(ctx context.Context, path, pageRange string) (*pipeline.PDFResult, error)
	ExtractFields(text string) (classify.DocumentType, []fields.Field)
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	MaxUploadMB     int64
	TimeoutSec      int
	ShutdownTimeout int
}

// Server holds the HTTP server state and dependencies. Store may be nil;
// the scan endpoints are registered only when it is set.
type Server struct {
	pipeline    documentPipeline
	store       *storage.Store
	maxUploadMB int64
	timeoutSec  int
	cfg         Config
}

// New creates a server around the given pipeline. store may be nil.
func New(cfg Config, pl documentPipeline, store *storage.Store) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 50
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 60
	}
	return &Server{
		pipeline:    pl,
		store:       store,
		maxUploadMB: cfg.MaxUploadMB,
		timeoutSec:  cfg.TimeoutSec,
		cfg:         cfg,
	}
}

// Routes builds the HTTP handler with all endpoints registered.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.instrument(s.healthHandler))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/process/image", s.instrument(s.processImageHandler))
	mux.HandleFunc("POST /v1/process/pdf", s.instrument(s.processPDFHandler))
	mux.HandleFunc("POST /v1/process/text", s.instrument(s.processTextHandler))
	mux.HandleFunc("GET /ws/process", s.processWebSocketHandler)

	if s.store != nil {
		mux.HandleFunc("GET /v1/scans", s.instrument(s.listScansHandler))
		mux.HandleFunc("GET /v1/scans/{id}", s.instrument(s.getScanHandler))
		mux.HandleFunc("DELETE /v1/scans/{id}", s.instrument(s.deleteScanHandler))
	}

	return mux
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(s.timeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.timeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := time.Duration(s.cfg.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("server shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
