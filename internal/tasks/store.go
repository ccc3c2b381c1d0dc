// Package tasks is the local task store: weekly buckets of user-owned
// tasks plus the template catalog.
package tasks

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/storage"
	"weekplan/internal/weekdate"
)

var (
	ErrInvalidTask     = errors.New("invalid task")
	ErrInvalidTemplate = errors.New("invalid template")
	ErrTaskNotFound    = errors.New("task not found")
	// ErrImportedTask is returned when an edit targets an imported task.
	// Those are replaced on every sync of their source.
	ErrImportedTask = errors.New("imported tasks are read-only")
)

// DefaultStartTime is used when a template is dropped without a time.
const DefaultStartTime = "09:00"

// ImportedRemover removes a single imported task by its composite id.
type ImportedRemover interface {
	RemoveImportedTaskByID(id string) error
}

// Store persists local tasks and templates. Storage failures never reach
// the caller: reads degrade to empty and writes are dropped after being
// logged. Validation errors are returned before anything is written.
type Store struct {
	kv       storage.KV
	imported ImportedRemover
	now      func() time.Time

	mu sync.Mutex
}

// NewStore builds a store on kv. imported receives deletes of "ical-" ids
// and may be nil when no import engine is wired.
func NewStore(kv storage.KV, imported ImportedRemover) *Store {
	return &Store{kv: kv, imported: imported, now: time.Now}
}

// TaskPatch is a partial update. Nil fields are left alone.
type TaskPatch struct {
	Date        *string `json:"date,omitempty"`
	StartTime   *string `json:"startTime,omitempty"`
	EndTime     *string `json:"endTime,omitempty"`
	Description *string `json:"description,omitempty"`
	TemplateID  *string `json:"templateId,omitempty"`
}

func (p TaskPatch) apply(t *model.LocalTask) error {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		t.EndTime = *p.EndTime
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.TemplateID != nil {
		t.TemplateID = *p.TemplateID
	}
	return nil
}

func (s *Store) loadAgendas() []model.WeeklyAgenda {
	return storage.ReadOrEmpty[[]model.WeeklyAgenda](s.kv, storage.KeyWeeklyAgenda)
}

func (s *Store) saveAgendas(agendas []model.WeeklyAgenda) {
	storage.WriteOrDrop(s.kv, storage.KeyWeeklyAgenda, agendas)
}

func bucketIndex(agendas []model.WeeklyAgenda, year, week int) int {
	for i, a := range agendas {
		if a.Year == year && a.Week == week {
			return i
		}
	}
	return -1
}

func ensureBucket(agendas []model.WeeklyAgenda, year, week int) ([]model.WeeklyAgenda, int) {
	if i := bucketIndex(agendas, year, week); i >= 0 {
		return agendas, i
	}
	agendas = append(agendas, model.WeeklyAgenda{Year: year, Week: week, Tasks: []model.LocalTask{}})
	return agendas, len(agendas) - 1
}

// validateTask checks a task is fit to persist in bucket (year, week).
func validateTask(year, week int, t model.LocalTask) error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidTask)
	}
	if !model.ValidClock(t.StartTime) {
		return fmt.Errorf("%w: start time %q", ErrInvalidTask, t.StartTime)
	}
	// end may run past midnight after a move, so it is not bounded by 24:00
	dur, err := t.Duration()
	if err != nil {
		return fmt.Errorf("%w: end time %q", ErrInvalidTask, t.EndTime)
	}
	if dur < 0 {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidTask, t.EndTime, t.StartTime)
	}
	y, w, err := weekdate.WeekOf(t.Date)
	if err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidTask, t.Date)
	}
	if y != year || w != week {
		return fmt.Errorf("%w: date %s belongs to %d-W%02d, not %d-W%02d", ErrInvalidTask, t.Date, y, w, year, week)
	}
	return nil
}

// AddTask assigns a fresh id to t and appends it to the (year, week)
// bucket, creating the bucket if needed. t.ID is ignored.
func (s *Store) AddTask(year, week int, t model.LocalTask) (model.LocalTask, error) {
	if err := validateTask(year, week, t); err != nil {
		return model.LocalTask{}, err
	}
	t.ID = model.NewID()

	s.mu.Lock()
	defer s.mu.Unlock()

	agendas, i := ensureBucket(s.loadAgendas(), year, week)
	agendas[i].Tasks = append(agendas[i].Tasks, t)
	s.saveAgendas(agendas)

	appLog.Debug("task added", "id", t.ID, "date", t.Date)
	return t, nil
}

// UpdateTask merges patch over the task with id in bucket (year, week).
// A missing task is a silent no-op. When the date moves into another ISO
// week the task is relocated to that week's bucket.
func (s *Store) UpdateTask(year, week int, id string, patch TaskPatch) error {
	if model.IsImportedID(id) {
		return fmt.Errorf("%w: %s", ErrImportedTask, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agendas := s.loadAgendas()
	_, err := s.updateLocked(agendas, year, week, id, patch.apply)
	if errors.Is(err, ErrTaskNotFound) {
		return nil
	}
	return err
}

// updateLocked finds id in bucket (year, week), applies mutate to a copy,
// validates the result against the bucket of its (possibly new) date and
// persists. Callers hold s.mu.
func (s *Store) updateLocked(agendas []model.WeeklyAgenda, year, week int, id string, mutate func(*model.LocalTask) error) (model.LocalTask, error) {
	bi := bucketIndex(agendas, year, week)
	if bi < 0 {
		return model.LocalTask{}, ErrTaskNotFound
	}
	ti := -1
	for i, t := range agendas[bi].Tasks {
		if t.ID == id {
			ti = i
			break
		}
	}
	if ti < 0 {
		return model.LocalTask{}, ErrTaskNotFound
	}

	updated := agendas[bi].Tasks[ti]
	if err := mutate(&updated); err != nil {
		return model.LocalTask{}, err
	}

	ny, nw, err := weekdate.WeekOf(updated.Date)
	if err != nil {
		return model.LocalTask{}, fmt.Errorf("%w: date %q", ErrInvalidTask, updated.Date)
	}
	if err := validateTask(ny, nw, updated); err != nil {
		return model.LocalTask{}, err
	}

	if ny == year && nw == week {
		agendas[bi].Tasks[ti] = updated
	} else {
		tasks := agendas[bi].Tasks
		agendas[bi].Tasks = append(tasks[:ti:ti], tasks[ti+1:]...)
		var di int
		agendas, di = ensureBucket(agendas, ny, nw)
		agendas[di].Tasks = append(agendas[di].Tasks, updated)
		appLog.Debug("task moved across weeks", "id", id, "from", fmt.Sprintf("%d-W%02d", year, week), "to", fmt.Sprintf("%d-W%02d", ny, nw))
	}
	s.saveAgendas(agendas)
	return updated, nil
}

// MoveTask relocates a task to newDate at newStart, keeping its duration,
// and persists the result.
func (s *Store) MoveTask(year, week int, id, newDate, newStart string) (model.Placement, error) {
	if model.IsImportedID(id) {
		return model.Placement{}, fmt.Errorf("%w: %s", ErrImportedTask, id)
	}
	if !model.ValidClock(newStart) {
		return model.Placement{}, fmt.Errorf("%w: start time %q", ErrInvalidTask, newStart)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var placement model.Placement
	_, err := s.updateLocked(s.loadAgendas(), year, week, id, func(t *model.LocalTask) error {
		p, err := model.Relocate(t.Slot, newDate, newStart)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
		placement = p
		t.Date, t.StartTime, t.EndTime = p.Date, p.StartTime, p.EndTime
		return nil
	})
	if err != nil {
		return model.Placement{}, err
	}
	return placement, nil
}

// DeleteTask removes a local task. Composite "ical-" ids are handed to
// the import engine and the weekly buckets are not touched.
func (s *Store) DeleteTask(year, week int, id string) error {
	if model.IsImportedID(id) {
		if s.imported == nil {
			return fmt.Errorf("%w: no calendar engine for %s", ErrImportedTask, id)
		}
		return s.imported.RemoveImportedTaskByID(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agendas := s.loadAgendas()
	bi := bucketIndex(agendas, year, week)
	if bi < 0 {
		return nil
	}
	kept := agendas[bi].Tasks[:0:0]
	for _, t := range agendas[bi].Tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(agendas[bi].Tasks) {
		return nil
	}
	agendas[bi].Tasks = kept
	s.saveAgendas(agendas)
	return nil
}

// Week returns every task of bucket (year, week) in insertion order.
func (s *Store) Week(year, week int) []model.LocalTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	agendas := s.loadAgendas()
	if i := bucketIndex(agendas, year, week); i >= 0 {
		return agendas[i].Tasks
	}
	return nil
}

// TasksForDate filters bucket (year, week) by exact date. Imported tasks
// are not included.
func (s *Store) TasksForDate(year, week int, dateKey string) []model.LocalTask {
	var out []model.LocalTask
	for _, t := range s.Week(year, week) {
		if t.Date == dateKey {
			out = append(out, t)
		}
	}
	return out
}

// Task looks a local task up by id within one bucket.
func (s *Store) Task(year, week int, id string) (model.LocalTask, bool) {
	for _, t := range s.Week(year, week) {
		if t.ID == id {
			return t, true
		}
	}
	return model.LocalTask{}, false
}
