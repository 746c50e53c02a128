package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	mrand "math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yourusername/bgsim/internal/features"
	"github.com/yourusername/bgsim/pkg/game"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxSessions  int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxSessions:  1024,
	}
}

// Server is the environment service.
type Server struct {
	config ServerConfig
	store  *SessionStore
	logger *log.Logger
	mux    *http.ServeMux
}

// NewServer creates a configured server. A nil logger disables request
// logging.
func NewServer(config ServerConfig, logger *log.Logger) *Server {
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultConfig().MaxSessions
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	srv := &Server{
		config: config,
		store:  NewSessionStore(config.MaxSessions),
		logger: logger,
		mux:    http.NewServeMux(),
	}
	srv.routes()
	return srv
}

func (srv *Server) routes() {
	srv.mux.HandleFunc("GET /api/health", srv.handleHealth)
	srv.mux.HandleFunc("POST /api/games", srv.handleCreate)
	srv.mux.HandleFunc("GET /api/games/{id}", srv.handleState)
	srv.mux.HandleFunc("DELETE /api/games/{id}", srv.handleDelete)
	srv.mux.HandleFunc("GET /api/games/{id}/actions", srv.handleActions)
	srv.mux.HandleFunc("GET /api/games/{id}/features", srv.handleFeatures)
	srv.mux.HandleFunc("POST /api/games/{id}/apply", srv.handleApply)
	srv.mux.HandleFunc("POST /api/games/{id}/roll", srv.handleRoll)
	srv.mux.HandleFunc("POST /api/games/{id}/step", srv.handleStep)
	srv.mux.HandleFunc("POST /api/games/{id}/reset", srv.handleReset)
	srv.mux.HandleFunc("GET /api/ws", srv.handleWebSocket)
}

// Handler returns the full handler chain, middleware included.
func (srv *Server) Handler() http.Handler {
	return srv.corsMiddleware(srv.loggingMiddleware(srv.mux))
}

// ListenAndServe runs the server until ctx is done or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (srv *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", srv.config.Host, srv.config.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  srv.config.ReadTimeout,
		WriteTimeout: srv.config.WriteTimeout,
		IdleTimeout:  srv.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("server listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case s := <-sig:
		srv.logger.Info("signal received", "signal", s)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.logger.Info("shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (srv *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (srv *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		srv.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (srv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  Version,
		Sessions: srv.store.Len(),
	})
}

func (srv *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sess, err := srv.store.Create(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrTooManySessions) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "create_failed", err)
		return
	}
	srv.logger.Info("session created", "session", sess.ID)
	srv.respondState(w, sess, http.StatusCreated)
}

func (srv *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := srv.session(w, r)
	if !ok {
		return
	}
	srv.respondState(w, sess, http.StatusOK)
}

func (srv *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	srv.store.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	sess, ok := srv.session(w, r)
	if !ok {
		return
	}
	var actions []int
	sess.Do(func(s *game.State, _ *mrand.Rand) error {
		if !s.Terminated() && !s.IsChanceNode() {
			actions = append([]int(nil), s.LegalActions()...)
		}
		return nil
	})
	writeJSON(w, http.StatusOK, map[string][]int{"legal_actions": actions})
}

// handleFeatures encodes the session's position as an observation vector;
// the variant query parameter selects the encoding.
func (srv *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	sess, ok := srv.session(w, r)
	if !ok {
		return
	}
	variant := r.URL.Query().Get("variant")
	if variant == "" {
		variant = "flat"
	}
	enc, err := features.New(variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_variant", err)
		return
	}
	var vec []float64
	sess.Do(func(s *game.State, _ *mrand.Rand) error {
		vec = enc.Encode(s, nil)
		return nil
	})
	writeJSON(w, http.StatusOK, FeaturesResponse{
		SessionID: sess.ID,
		Variant:   enc.Name(),
		Size:      enc.Size(),
		Vector:    vec,
	})
}

func (srv *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	srv.mutate(w, r, func(s *game.State, rng *mrand.Rand, action int) error {
		return s.ApplyAction(action)
	})
}

func (srv *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	sess, ok := srv.session(w, r)
	if !ok {
		return
	}
	err := sess.Do(func(s *game.State, rng *mrand.Rand) error {
		return s.SampleChance(rng)
	})
	if err != nil {
		writeError(w, http.StatusConflict, "roll_failed", err)
		return
	}
	srv.respondState(w, sess, http.StatusOK)
}

func (srv *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	srv.mutate(w, r, func(s *game.State, rng *mrand.Rand, action int) error {
		return s.Step(action, rng)
	})
}

func (srv *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := srv.session(w, r)
	if !ok {
		return
	}
	if err := sess.Restart(); err != nil {
		writeError(w, http.StatusInternalServerError, "reset_failed", err)
		return
	}
	srv.respondState(w, sess, http.StatusOK)
}

// mutate reads an ActionRequest, applies fn to the session's game and
// responds with the new state.
func (srv *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*game.State, *mrand.Rand, int) error) {
	sess, ok := srv.session(w, r)
	if !ok {
		return
	}
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	err := sess.Do(func(s *game.State, rng *mrand.Rand) error {
		return fn(s, rng, req.Action)
	})
	if err != nil {
		writeError(w, http.StatusConflict, "action_rejected", err)
		return
	}
	srv.respondState(w, sess, http.StatusOK)
}

func (srv *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := srv.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err)
		return nil, false
	}
	return sess, true
}

func (srv *Server) respondState(w http.ResponseWriter, sess *Session, status int) {
	var resp StateResponse
	sess.Do(func(s *game.State, _ *mrand.Rand) error {
		resp = snapshotState(sess.ID, s)
		return nil
	})
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
