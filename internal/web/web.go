package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"weekplan/internal/app"
	"weekplan/internal/calendar"
	"weekplan/internal/config"
	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/prefs"
	"weekplan/internal/render"
	"weekplan/internal/share"
	"weekplan/internal/tasks"
	"weekplan/internal/weekdate"
)

// maxBodyBytes bounds JSON request bodies. Background uploads have their
// own, larger limit.
const maxBodyBytes = 1 << 20

// Server exposes every planner operation as a JSON API on loopback.
type Server struct {
	cfg *config.Config
	app *app.App
	mux *http.ServeMux

	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, a *app.App) *Server {
	s := &Server{
		cfg: cfg,
		app: a,
		mux: http.NewServeMux(),
		now: time.Now,
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
	// an empty username or password disables auth
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
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
			w.Header().Set("WWW-Authenticate", `Basic realm="weekplan", charset="UTF-8"`)
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

// NewHTTPServer returns an http.Server bound to cfg.Listen. Shutdown is
// left to the caller.
func NewHTTPServer(cfg *config.Config, a *app.App) *http.Server {
	s := NewServer(cfg, a)
	return &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/weeks/current", s.handleCurrentWeek)
	s.mux.HandleFunc("GET /api/weeks/{year}/{week}", s.handleWeek)
	s.mux.HandleFunc("POST /api/weeks/{year}/{week}/tasks", s.handleAddTask)
	s.mux.HandleFunc("PATCH /api/weeks/{year}/{week}/tasks/{id}", s.handleUpdateTask)
	s.mux.HandleFunc("POST /api/weeks/{year}/{week}/tasks/{id}/move", s.handleMoveTask)
	s.mux.HandleFunc("DELETE /api/weeks/{year}/{week}/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("GET /api/weeks/{year}/{week}/export", s.handleExport)
	s.mux.HandleFunc("POST /api/weeks/{year}/{week}/share", s.handleShare)

	s.mux.HandleFunc("GET /api/templates", s.handleTemplates)
	s.mux.HandleFunc("POST /api/templates", s.handleAddTemplate)
	s.mux.HandleFunc("PATCH /api/templates/{id}", s.handleUpdateTemplate)
	s.mux.HandleFunc("DELETE /api/templates/{id}", s.handleDeleteTemplate)
	s.mux.HandleFunc("POST /api/templates/{id}/instantiate", s.handleInstantiate)

	s.mux.HandleFunc("GET /api/sources", s.handleSources)
	s.mux.HandleFunc("POST /api/sources", s.handleAddSource)
	s.mux.HandleFunc("POST /api/sources/sync", s.handleSyncAll)
	s.mux.HandleFunc("POST /api/sources/{id}/sync", s.handleSyncSource)
	s.mux.HandleFunc("DELETE /api/sources/{id}", s.handleRemoveSource)
	s.mux.HandleFunc("GET /api/imported", s.handleImported)
	s.mux.HandleFunc("DELETE /api/imported/{id}", s.handleRemoveImported)

	s.mux.HandleFunc("GET /api/export/settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /api/export/settings", s.handlePutSettings)
	s.mux.HandleFunc("DELETE /api/export/settings", s.handleResetSettings)
	s.mux.HandleFunc("POST /api/export/background", s.handleUploadBackground)
	s.mux.HandleFunc("GET /api/backgrounds", s.handleBackgrounds)

	s.mux.HandleFunc("GET /api/verse", s.handleVerse)
	s.mux.HandleFunc("PUT /api/verse", s.handleSetVerse)
	s.mux.HandleFunc("POST /api/verse/refresh", s.handleRefreshVerse)
	s.mux.HandleFunc("GET /api/verses", s.handleVerses)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// weekParams reads and validates {year}/{week}.
func weekParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err1 := strconv.Atoi(r.PathValue("year"))
	week, err2 := strconv.Atoi(r.PathValue("week"))
	if err1 != nil || err2 != nil || !weekdate.ValidWeek(year, week) {
		writeError(w, http.StatusBadRequest, "invalid year/week")
		return 0, 0, false
	}
	return year, week, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps package errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var syncErr *calendar.SyncError
	var exportErr *render.ExportError
	switch {
	case errors.Is(err, tasks.ErrInvalidTask),
		errors.Is(err, tasks.ErrInvalidTemplate),
		errors.Is(err, calendar.ErrInvalidSource),
		errors.Is(err, prefs.ErrInvalidSettings),
		errors.Is(err, prefs.ErrUnsupportedType),
		errors.Is(err, model.ErrNotImportedID),
		errors.Is(err, render.ErrInvalidScale),
		errors.Is(err, share.ErrUnknownTarget),
		errors.Is(err, app.ErrInvalidWeek):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, prefs.ErrUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, tasks.ErrTaskNotFound), errors.Is(err, calendar.ErrSourceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tasks.ErrImportedTask):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &syncErr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &exportErr):
		appLog.Error("export failed", err, "step", exportErr.Step)
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		appLog.Error("api request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
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
