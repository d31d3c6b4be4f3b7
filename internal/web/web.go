package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"notioncal/internal/config"
	apperrors "notioncal/internal/errors"
	"notioncal/internal/ics"
	appLog "notioncal/internal/log"
	"notioncal/internal/model"
	"notioncal/internal/reconcile"
	"notioncal/internal/schedule"
)

// Runner is what the server needs from schedule.Runner.
type Runner interface {
	Status() schedule.Status
	Trigger(ctx context.Context) (*reconcile.Result, error)
	Desired() []model.TargetEvent
}

// Server provides the status API:
//   - GET  /health        liveness, never authenticated
//   - GET  /api/status    runner status
//   - POST /api/sync      run a pass now
//   - GET  /calendar.ics  desired events as iCalendar
type Server struct {
	cfg    *config.Config
	runner Runner
	mux    *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, runner Runner) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="notioncal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// shutdownTimeout bounds the wait for open requests on shutdown.
var shutdownTimeout = 5 * time.Second

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully. An empty listen address disables the server and Serve
// returns nil immediately.
func Serve(ctx context.Context, cfg *config.Config, runner Runner) error {
	if cfg.Listen == "" {
		appLog.Info("HTTP server disabled (empty listen address)")
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewServer(cfg, runner).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// A POST /api/sync may still be waiting on its pass; the runner
		// keeps the pass alive and Runner.Stop waits for it.
		appLog.Warn("HTTP shutdown timed out; closing open connections", "error", err)
		_ = srv.Close()
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Status())
}

// syncErrorResponse is the body of a failed POST /api/sync.
type syncErrorResponse struct {
	Error  string            `json:"error"`
	Result *reconcile.Result `json:"result,omitempty"`
}

// handleSync runs a pass and waits for it. The pass outlives the request
// if the client disconnects.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Trigger(r.Context())
	switch {
	case apperrors.Is(err, apperrors.ErrPassInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeJSON(w, http.StatusBadGateway, syncErrorResponse{Error: err.Error(), Result: res})
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="notioncal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.Export(s.runner.Desired(), "")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
