package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"safetycal/internal/aggregate"
	"safetycal/internal/config"
	"safetycal/internal/dashboard"
	"safetycal/internal/dispatch"
	"safetycal/internal/i18n"
	appLog "safetycal/internal/log"
)

// eventsTTL is how long an applied aggregation serves reads before a request
// triggers a new one. The cron refresh in cmd/safetycal usually beats it.
const eventsTTL = 30 * time.Second

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

type Options struct {
	Config     *config.Config
	Tracker    *aggregate.Tracker
	Bundle     *i18n.Bundle
	Dispatcher *dispatch.Dispatcher
	Prefills   *dispatch.PrefillStore
	Dashboard  *dashboard.Summarizer
	// Now may be nil.
	Now func() time.Time
}

// Server provides the calendar JSON API, the month page and the ICS feed.
type Server struct {
	cfg        *config.Config
	tracker    *aggregate.Tracker
	bundle     *i18n.Bundle
	dispatcher *dispatch.Dispatcher
	prefills   *dispatch.PrefillStore
	dashboard  *dashboard.Summarizer
	loc        *time.Location
	now        func() time.Time
	mux        *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Tracker == nil {
		return nil, errors.New("web: config and tracker are required")
	}
	if opts.Dispatcher == nil || opts.Prefills == nil || opts.Dashboard == nil {
		return nil, errors.New("web: dispatcher, prefill store and dashboard are required")
	}
	s := &Server{
		cfg:        opts.Config,
		tracker:    opts.Tracker,
		bundle:     opts.Bundle,
		dispatcher: opts.Dispatcher,
		prefills:   opts.Prefills,
		dashboard:  opts.Dashboard,
		loc:        opts.Config.Location(),
		now:        opts.Now,
		mux:        http.NewServeMux(),
	}
	if s.bundle == nil {
		s.bundle = i18n.NewBundle(opts.Config.Locale)
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.registerRoutes()
	return s, nil
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

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials leave it off.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg.BasicAuth == nil {
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
			w.Header().Set("WWW-Authenticate", `Basic realm="SafetyCal", charset="UTF-8"`)
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

// Serve runs an HTTP server on cfg.Listen until ctx is done, then shuts it
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreate)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/calendar/day", s.handleDay)
	s.mux.HandleFunc("GET /api/prefill/{token}", s.handlePrefill)
	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	s.mux.HandleFunc("GET /calendar", s.handleCalendarPage)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG of the month page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Capture.OutputPath)
}

// translator picks the request locale: ?lang= first, then Accept-Language.
func (s *Server) translator(r *http.Request) i18n.Translator {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return s.bundle.For(lang)
	}
	return s.bundle.For(s.bundle.Negotiate(r.Header.Get("Accept-Language")))
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
