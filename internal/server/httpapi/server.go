// Package httpapi exposes the sync services as a JSON API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/logging"
	"github.com/dmitrijs2005/vaultsync/internal/server/services"
	"github.com/klauspost/compress/gzhttp"
)

const (
	gzipMinSize     = 500
	shutdownTimeout = 10 * time.Second

	// defaultBodyLimit caps every JSON request body except attachment pushes.
	defaultBodyLimit int64 = 64 << 20
	// attachmentsPerRequest is how many maximum-size attachments one push
	// body must be able to carry.
	attachmentsPerRequest = 8
	// attachmentItemOverhead covers the JSON metadata around each payload.
	attachmentItemOverhead = 64 << 10
)

// Services groups the business services the handlers call.
type Services struct {
	Users       *services.UserService
	Sync        *services.SyncService
	Notes       *services.NoteService
	Attachments *services.AttachmentService
	Report      *services.ReportService
}

type Server struct {
	address             string
	timeout             time.Duration
	bodyLimit           int64
	attachmentBodyLimit int64
	logger              logging.Logger
	auth                Authenticator
	svc                 Services
	gzip                func(http.Handler) http.HandlerFunc
}

// NewServer builds the HTTP server. timeout bounds every request; zero
// disables the limit. maxAttachmentSize sizes the body limit of attachment
// pushes so that a batch of in-limit attachments is never cut off.
func NewServer(address string, timeout time.Duration, maxAttachmentSize int64, l logging.Logger, svc Services) (*Server, error) {
	gz, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize))
	if err != nil {
		return nil, fmt.Errorf("gzip middleware: %w", err)
	}
	return &Server{
		address:             address,
		timeout:             timeout,
		bodyLimit:           defaultBodyLimit,
		attachmentBodyLimit: attachmentBodyLimit(maxAttachmentSize),
		logger:              l.With("module", "http_server"),
		auth:                svc.Users,
		svc:                 svc,
		gzip:                gz,
	}, nil
}

// attachmentBodyLimit returns the body cap for an attachment push: room for
// attachmentsPerRequest base64 payloads of maxSize bytes, and never less
// than defaultBodyLimit.
func attachmentBodyLimit(maxSize int64) int64 {
	encoded := (maxSize + 2) / 3 * 4
	limit := attachmentsPerRequest * (encoded + attachmentItemOverhead)
	return max(limit, defaultBodyLimit)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/refresh", s.refresh)
	mux.Handle("GET /auth/me", s.requireAuth(s.me))
	mux.Handle("DELETE /auth/me", s.requireAuth(s.deleteMe))

	mux.Handle("POST /sync", s.requireAuth(s.sync))
	mux.Handle("POST /sync/push", s.requireAuth(s.pushNotes))
	mux.Handle("POST /sync/pull", s.requireAuth(s.pullNotes))
	mux.Handle("POST /sync/attachments/push", s.requireAuth(s.pushAttachments))
	mux.Handle("POST /sync/attachments/pull", s.requireAuth(s.pullAttachments))
	mux.Handle("POST /sync/compare", s.requireAuth(s.compare))
	mux.Handle("GET /sync/notes", s.requireAuth(s.listNotes))

	var h http.Handler = mux
	if s.timeout > 0 {
		h = http.TimeoutHandler(h, s.timeout, `{"detail":"request timeout"}`)
	}

	return chain(h,
		requestID,
		accessLog(s.logger),
		recovery(s.logger),
		cors,
		func(next http.Handler) http.Handler { return s.gzip(next) },
	)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
