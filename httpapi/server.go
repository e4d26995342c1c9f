// Package httpapi serves the vault over HTTP with the JSON surface of the
// original service: POST /store_data, POST /retrieve_data and GET /health.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/cidvault/vault"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 60 * time.Second

	maxBodyBytes = 64 << 20
)

// Server wraps HTTP handlers for a Vault.
type Server struct {
	addr    string
	vault   *vault.Vault
	timeout time.Duration
	logger  *logrus.Logger
}

// New creates a server. timeout bounds each store or retrieve call; zero
// means no deadline beyond the client's connection.
func New(addr string, v *vault.Vault, timeout time.Duration, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{addr: addr, vault: v, timeout: timeout, logger: logger}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("httpapi: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /store_data", s.handleStore)
	mux.HandleFunc("POST /retrieve_data", s.handleRetrieve)
	return mux
}

// requestContext applies the per-request deadline.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeout)
}
