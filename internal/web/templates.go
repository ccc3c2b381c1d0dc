package web

import (
	"net/http"

	"weekplan/internal/model"
	"weekplan/internal/tasks"
)

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	list := s.app.Tasks.Templates()
	if list == nil {
		list = []model.TaskTemplate{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddTemplate(w http.ResponseWriter, r *http.Request) {
	var in model.TaskTemplate
	if !decodeJSON(w, r, &in) {
		return
	}
	tpl, err := s.app.Tasks.AddTemplate(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var patch tasks.TemplatePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.app.Tasks.UpdateTemplate(r.PathValue("id"), patch); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	s.app.Tasks.DeleteTemplate(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type instantiateRequest struct {
	Year      int    `json:"year"`
	Week      int    `json:"week"`
	Date      string `json:"date"`
	StartTime string `json:"startTime,omitempty"`
}

// handleInstantiate drops a template on a day.
//
// POST /api/templates/{id}/instantiate {"year":2024,"week":10,"date":"2024-03-04","startTime":"07:00"}
func (s *Server) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := s.app.Tasks.Template(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	var in instantiateRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := s.app.Tasks.InstantiateFromTemplate(tpl, in.Year, in.Week, in.Date, in.StartTime)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.View(task))
}
