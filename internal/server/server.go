package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/jobs"
	"github.com/dockhand/dockhand/internal/status"
)

// Submitter schedules start/stop jobs without blocking.
type Submitter interface {
	Submit(svc config.Service, action jobs.Action) string
	SubmitAll(action jobs.Action) []jobs.Submission
}

// JobReader looks up job records for polling.
type JobReader interface {
	Get(id string) (jobs.Job, bool)
}

// Snapshotter reconciles live service status on demand.
type Snapshotter interface {
	Snapshot(ctx context.Context) map[string]status.Snapshot
}

// Options carries the static server settings.
type Options struct {
	Addr string

	// ImagesDir is checked first for icons; FallbackImagesDir holds the
	// bundled placeholders. Either may be empty or absent on disk.
	ImagesDir         string
	FallbackImagesDir string
}

// Server is the HTTP adapter over the scheduler, registry and reconciler. It
// is stateless beyond delegation: clients observe job completion by polling
// the job endpoint.
type Server struct {
	opts       Options
	table      *config.Table
	submitter  Submitter
	registry   JobReader
	snapshots  Snapshotter
	logger     *slog.Logger
	httpServer *http.Server
	startTime  time.Time
}

func New(opts Options, table *config.Table, submitter Submitter, registry JobReader, snapshots Snapshotter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		opts:      opts,
		table:     table,
		submitter: submitter,
		registry:  registry,
		snapshots: snapshots,
		logger:    logger,
		startTime: time.Now().UTC(),
	}
}

// Handler builds the full routed handler, middleware included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return s.withMiddleware(mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:        s.opts.Addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// A full snapshot can wait on several docker compose ps calls;
		// the write timeout has to outlive the worst case.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("dockhand listening", "addr", s.opts.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
