package web

import (
	"net/http"

	"weekplan/internal/calendar"
	appLog "weekplan/internal/log"
	"weekplan/internal/model"
)

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	list := s.app.Calendar.Sources()
	if list == nil {
		list = []model.CalendarSource{}
	}
	writeJSON(w, http.StatusOK, list)
}

type addSourceRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type addSourceResponse struct {
	Source   model.CalendarSource `json:"source"`
	Imported int                  `json:"imported"`
}

// handleAddSource registers a feed and syncs it once. A failing first
// sync leaves nothing behind.
func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var in addSourceRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	src, n, err := s.app.Calendar.AddAndSyncSource(r.Context(), in.URL, in.Name)
	if err != nil {
		appLog.Warn("api add source failed", "url", appLog.RedactURL(in.URL), "err", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addSourceResponse{Source: src, Imported: n})
}

type syncResponse struct {
	Imported int `json:"imported"`
}

func (s *Server) handleSyncSource(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.Calendar.SyncSource(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Imported: n})
}

func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	summary := s.app.Calendar.SyncAllSources(r.Context())
	if summary.FailedSources == nil {
		summary.FailedSources = []string{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRemoveSource(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Calendar.RemoveSource(r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImported(w http.ResponseWriter, r *http.Request) {
	var list []calendar.TaskWithSource
	if src := r.URL.Query().Get("source"); src != "" {
		name := calendar.UnknownSource
		color := ""
		if cs, ok := s.app.Calendar.Source(src); ok {
			name, color = cs.Name, cs.Color
		}
		for _, t := range s.app.Calendar.TasksForSource(src) {
			list = append(list, calendar.TaskWithSource{ImportedTask: t, SourceName: name, SourceColor: color})
		}
	} else {
		list = s.app.Calendar.TasksWithSource()
	}
	if list == nil {
		list = []calendar.TaskWithSource{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleRemoveImported hides one imported task until its source is
// synced again.
func (s *Server) handleRemoveImported(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Calendar.RemoveImportedTaskByID(r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
