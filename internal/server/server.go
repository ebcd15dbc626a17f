// Package server exposes the session coordinator over HTTP with JSON
// endpoints and Server-Sent Event streams for training and playback.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/boristopalov/rlplayground/pkg/algorithm"
	"github.com/boristopalov/rlplayground/pkg/environment"
	"github.com/boristopalov/rlplayground/pkg/history"
	"github.com/boristopalov/rlplayground/pkg/logging"
	"github.com/boristopalov/rlplayground/pkg/messaging"
	"github.com/boristopalov/rlplayground/pkg/session"
)

// Journal records training runs. *history.Store satisfies it.
type Journal interface {
	RecordSession(ctx context.Context, rec history.SessionRecord) error
	RecordEpisode(ctx context.Context, rec history.EpisodeRecord) error
}

// Server is the HTTP front of one coordinator
type Server struct {
	coord        *session.Coordinator
	algorithms   *algorithm.Registry
	environments *environment.Provider
	broker       *messaging.SimpleBroker
	journal      Journal
	logger       *slog.Logger
	addr         string

	mu      sync.Mutex
	pending map[string]int      // episodes requested by POST /api/train, consumed by the stream
	busy    map[string]struct{} // sessions with a stream in flight
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func WithJournal(j Journal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

func WithBroker(b *messaging.SimpleBroker) Option {
	return func(s *Server) {
		s.broker = b
	}
}

func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

func New(coord *session.Coordinator, algorithms *algorithm.Registry, environments *environment.Provider, opts ...Option) *Server {
	s := &Server{
		coord:        coord,
		algorithms:   algorithms,
		environments: environments,
		broker:       messaging.NewBroker(),
		logger:       logging.Discard(),
		addr:         ":5001",
		pending:      make(map[string]int),
		busy:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API with CORS headers applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return corsMiddleware(mux)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/algorithms", s.handleAlgorithms)
	mux.HandleFunc("GET /api/environments", s.handleEnvironments)
	mux.HandleFunc("GET /api/environments/{name}/preview", s.handlePreview)
	mux.HandleFunc("GET /api/parameters/{algorithm}", s.handleParameters)

	mux.HandleFunc("POST /api/train", s.handleTrain)
	mux.HandleFunc("GET /api/train/stream/{id}", s.handleTrainStream)
	mux.HandleFunc("GET /api/play-policy/stream/{id}", s.handlePlayStream)

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	mux.HandleFunc("GET /api/events", s.handleEvents)
}

// Start listens until ctx is cancelled, then drains connections and resets
// every session.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rlplay serve started", "addr", s.addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	// event streams only end when their request context does
	s.broker.Reset()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", "error", err)
	}
	if err := s.coord.ResetAll(); err != nil {
		s.logger.Error("session reset error", "error", err)
	}
	return nil
}

// acquire marks a session busy. It reports false if a stream already holds it.
func (s *Server) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[id]; ok {
		return false
	}
	s.busy[id] = struct{}{}
	return true
}

func (s *Server) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, id)
}

func (s *Server) setPending(id string, episodes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = episodes
}

func (s *Server) takePending(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.pending[id]
	delete(s.pending, id)
	return n, ok
}

func (s *Server) publish(msg messaging.Message) {
	if err := s.broker.Publish(msg); err != nil {
		s.logger.Debug("event dropped", "type", msg.Type, "error", err)
	}
}

// corsMiddleware adds permissive CORS headers so a browser frontend on
// another port can call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
