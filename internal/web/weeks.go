package web

import (
	"net/http"

	"weekplan/internal/model"
	"weekplan/internal/render"
	"weekplan/internal/tasks"
	"weekplan/internal/weekdate"
)

type weekRef struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

type dayDTO struct {
	Date      string           `json:"date"`
	DayName   string           `json:"dayName"`
	DateLabel string           `json:"dateLabel"`
	Tasks     []model.TaskView `json:"tasks"`
}

type weekResponse struct {
	Year  int      `json:"year"`
	Week  int      `json:"week"`
	Dates []string `json:"dates"`
	Days  []dayDTO `json:"days"`
}

func (s *Server) handleCurrentWeek(w http.ResponseWriter, _ *http.Request) {
	year, week := weekdate.Current(s.now())
	writeJSON(w, http.StatusOK, weekRef{Year: year, Week: week})
}

// handleWeek returns the merged tasks of all seven days.
//
// GET /api/weeks/{year}/{week}
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	year, week, ok := weekParams(w, r)
	if !ok {
		return
	}
	lb := render.LabelsFor(s.app.Locale())
	view := s.app.Agenda.Week(year, week)

	resp := weekResponse{Year: year, Week: week, Days: make([]dayDTO, 0, len(view.Days))}
	for i, d := range view.Days {
		resp.Dates = append(resp.Dates, d.Key)
		resp.Days = append(resp.Days, dayDTO{
			Date:      d.Key,
			DayName:   lb.DayName[i],
			DateLabel: weekdate.ShortDate(d.Date),
			Tasks:     d.Views(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	year, week, ok := weekParams(w, r)
	if !ok {
		return
	}
	var in model.LocalTask
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := s.app.Tasks.AddTask(year, week, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.View(task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	year, week, ok := weekParams(w, r)
	if !ok {
		return
	}
	var patch tasks.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.app.Tasks.UpdateTask(year, week, r.PathValue("id"), patch); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
}

// handleMoveTask is the drop target of drag and drop: the task keeps its
// duration and lands on the new date and start.
func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	year, week, ok := weekParams(w, r)
	if !ok {
		return
	}
	var in moveRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := s.app.Tasks.MoveTask(year, week, r.PathValue("id"), in.Date, in.StartTime)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	year, week, ok := weekParams(w, r)
	if !ok {
		return
	}
	if err := s.app.Tasks.DeleteTask(year, week, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
