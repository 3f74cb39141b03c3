package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oshokin/node-bootstrap/internal/config"
	"github.com/oshokin/node-bootstrap/internal/logger"
)

const (
	// placeholderBody is the fixed liveness response. External platforms
	// only care that a connection is accepted and answered.
	placeholderBody = "Hello world"

	// readHeaderTimeout bounds slow liveness probes.
	readHeaderTimeout = 10 * time.Second
)

// Server is the always-up liveness endpoint. It runs on its own goroutine
// for the whole process lifetime, independent of bootstrap success or
// failure, and shares nothing with the sequencer beyond read-only Settings.
type Server struct {
	srv *http.Server
}

// NewServer builds the health server for the configured port.
func NewServer(settings *config.Settings) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", settings.Port),
			Handler:           NewRouter(settings),
			ReadHeaderTimeout: readHeaderTimeout,
			// Probe noise (resets, TLS garbage) is not worth logging.
			ErrorLog: log.New(io.Discard, "", 0),
		},
	}
}

// NewRouter builds the request handler. Access logging is deliberately
// suppressed: liveness pollers would flood the log.
func NewRouter(settings *config.Settings) http.Handler {
	mux := chi.NewRouter()

	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(placeholderBody))
	})

	subFile := settings.SubFile
	mux.Get("/"+settings.SubPath, func(w http.ResponseWriter, r *http.Request) {
		contents, err := os.ReadFile(subFile)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(contents)
	})

	return mux
}

// Start binds the listener on all interfaces and begins serving on a
// separate goroutine. The bind happens synchronously so callers know the
// port is held before any download or launch work begins.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}

	logger.InfoKV(ctx, "Health endpoint listening", "address", s.srv.Addr)

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Health endpoint stopped", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
