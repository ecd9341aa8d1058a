// Package server exposes the assistant over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/tOgg1/pedrito/internal/assistant"
	"github.com/tOgg1/pedrito/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Controller is the assistant surface the API serves.
type Controller interface {
	Snapshot() assistant.Snapshot
	CompleteOnboarding(ctx context.Context) error
	Reconnect(ctx context.Context) error
	RefreshBriefing(ctx context.Context) error
	Complete(ctx context.Context, loopID string) error
	Dismiss(ctx context.Context, loopID string) error
}

// Server routes API requests to a Controller.
type Server struct {
	ctrl   Controller
	router *mux.Router
	logger zerolog.Logger
}

// New builds the API router.
func New(ctrl Controller) *Server {
	s := &Server{
		ctrl:   ctrl,
		router: mux.NewRouter(),
		logger: logging.Component("server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.UseEncodedPath()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/loops", s.handleLoops).Methods(http.MethodGet)
	api.HandleFunc("/digest", s.handleDigest).Methods(http.MethodGet)
	api.HandleFunc("/pairing-code", s.handlePairingCode).Methods(http.MethodGet)
	api.HandleFunc("/loops/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/loops/{id}/complete", s.handleComplete).Methods(http.MethodPost)
	api.HandleFunc("/loops/{id}/dismiss", s.handleDismiss).Methods(http.MethodPost)
	api.HandleFunc("/onboarding/complete", s.handleOnboarding).Methods(http.MethodPost)
	api.HandleFunc("/reconnect", s.handleReconnect).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled. onListening, when set,
// receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, onListening func(net.Addr)) error {
	httpSrv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if onListening != nil {
		onListening(ln.Addr())
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("api listening")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	err = httpSrv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
