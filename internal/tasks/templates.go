package tasks

import (
	"fmt"
	"strings"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/storage"
)

// TemplatePatch is a partial template update. Nil fields are left alone.
type TemplatePatch struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	DefaultDuration *int    `json:"defaultDuration,omitempty"`
	Category        *string `json:"category,omitempty"`
	Color           *string `json:"color,omitempty"`
}

func (s *Store) loadTemplates() []model.TaskTemplate {
	return storage.ReadOrEmpty[[]model.TaskTemplate](s.kv, storage.KeyTemplates)
}

func (s *Store) saveTemplates(templates []model.TaskTemplate) {
	storage.WriteOrDrop(s.kv, storage.KeyTemplates, templates)
}

func validateTemplate(t model.TaskTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if t.DefaultDuration <= 0 {
		return fmt.Errorf("%w: default duration must be positive, got %d", ErrInvalidTemplate, t.DefaultDuration)
	}
	return nil
}

// AddTemplate stores a new template with a fresh id, the current time as
// CreatedAt and a zero usage count.
func (s *Store) AddTemplate(t model.TaskTemplate) (model.TaskTemplate, error) {
	if err := validateTemplate(t); err != nil {
		return model.TaskTemplate{}, err
	}
	if strings.TrimSpace(t.Category) == "" {
		t.Category = model.DefaultCategory
	}
	t.ID = model.NewID()
	t.CreatedAt = s.now().UTC()
	t.UsageCount = 0

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveTemplates(append(s.loadTemplates(), t))
	return t, nil
}

// UpdateTemplate merges patch over template id. Unknown ids are ignored.
// Tasks created from the template are not touched.
func (s *Store) UpdateTemplate(id string, patch TemplatePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := s.loadTemplates()
	for i := range templates {
		if templates[i].ID != id {
			continue
		}
		t := templates[i]
		if patch.Name != nil {
			t.Name = *patch.Name
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.DefaultDuration != nil {
			t.DefaultDuration = *patch.DefaultDuration
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.Color != nil {
			t.Color = *patch.Color
		}
		if err := validateTemplate(t); err != nil {
			return err
		}
		templates[i] = t
		s.saveTemplates(templates)
		return nil
	}
	return nil
}

// DeleteTemplate removes a template. Tasks keep their TemplateID.
func (s *Store) DeleteTemplate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := s.loadTemplates()
	kept := templates[:0:0]
	for _, t := range templates {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) != len(templates) {
		s.saveTemplates(kept)
	}
}

// Templates lists all templates in creation order.
func (s *Store) Templates() []model.TaskTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTemplates()
}

func (s *Store) Template(id string) (model.TaskTemplate, bool) {
	for _, t := range s.Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return model.TaskTemplate{}, false
}

// IncrementTemplateUsage bumps the usage counter by one.
func (s *Store) IncrementTemplateUsage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := s.loadTemplates()
	for i := range templates {
		if templates[i].ID == id {
			templates[i].UsageCount++
			s.saveTemplates(templates)
			return
		}
	}
}

// InstantiateFromTemplate creates a task from tpl on date at startTime
// (DefaultStartTime when empty). The end is start plus the template's
// default duration. Usage is counted only once the task exists.
func (s *Store) InstantiateFromTemplate(tpl model.TaskTemplate, year, week int, date, startTime string) (model.LocalTask, error) {
	if err := validateTemplate(tpl); err != nil {
		return model.LocalTask{}, err
	}
	if startTime == "" {
		startTime = DefaultStartTime
	}
	end, err := model.EndAfter(startTime, tpl.DefaultDuration)
	if err != nil {
		return model.LocalTask{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	desc := tpl.Description
	if strings.TrimSpace(desc) == "" {
		desc = tpl.Name
	}

	task, err := s.AddTask(year, week, model.LocalTask{
		Slot: model.Slot{
			Date:        date,
			StartTime:   startTime,
			EndTime:     end,
			Description: desc,
		},
		TemplateID: tpl.ID,
	})
	if err != nil {
		return model.LocalTask{}, err
	}
	s.IncrementTemplateUsage(tpl.ID)

	appLog.Info("task created from template", "template", tpl.Name, "date", date, "start", startTime)
	return task, nil
}
