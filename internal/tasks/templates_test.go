package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/model"
)

func TestAddTemplateDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	tpl, err := s.AddTemplate(model.TaskTemplate{Name: "Workout", DefaultDuration: 45, UsageCount: 7})
	require.NoError(t, err)

	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, fixed, tpl.CreatedAt)
	assert.Equal(t, 0, tpl.UsageCount)
	assert.Equal(t, model.DefaultCategory, tpl.Category)
	assert.Equal(t, []model.TaskTemplate{tpl}, s.Templates())
}

func TestAddTemplateValidation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AddTemplate(model.TaskTemplate{Name: "", DefaultDuration: 30})
	assert.ErrorIs(t, err, ErrInvalidTemplate)
	_, err = s.AddTemplate(model.TaskTemplate{Name: "Nap", DefaultDuration: 0})
	assert.ErrorIs(t, err, ErrInvalidTemplate)
	assert.Empty(t, s.Templates())
}

func TestUpdateAndDeleteTemplate(t *testing.T) {
	s, _ := newTestStore(t)
	tpl, _ := s.AddTemplate(model.TaskTemplate{Name: "Workout", DefaultDuration: 45})

	d := 60
	require.NoError(t, s.UpdateTemplate(tpl.ID, TemplatePatch{DefaultDuration: &d}))
	got, ok := s.Template(tpl.ID)
	require.True(t, ok)
	assert.Equal(t, 60, got.DefaultDuration)
	assert.Equal(t, "Workout", got.Name)

	bad := -5
	assert.ErrorIs(t, s.UpdateTemplate(tpl.ID, TemplatePatch{DefaultDuration: &bad}), ErrInvalidTemplate)
	assert.NoError(t, s.UpdateTemplate("missing", TemplatePatch{DefaultDuration: &d}))

	s.DeleteTemplate(tpl.ID)
	_, ok = s.Template(tpl.ID)
	assert.False(t, ok)
}

func TestInstantiateFromTemplateScenario(t *testing.T) {
	s, _ := newTestStore(t)
	tpl, _ := s.AddTemplate(model.TaskTemplate{Name: "Workout", Description: "Workout", DefaultDuration: 45})

	task, err := s.InstantiateFromTemplate(tpl, 2024, 10, "2024-03-04", "07:00")
	require.NoError(t, err)

	assert.Equal(t, "07:00", task.StartTime)
	assert.Equal(t, "07:45", task.EndTime)
	assert.Equal(t, "2024-03-04", task.Date)
	assert.Equal(t, tpl.ID, task.TemplateID)

	got, _ := s.Template(tpl.ID)
	assert.Equal(t, 1, got.UsageCount)
}

func TestInstantiateCountsEveryUse(t *testing.T) {
	s, _ := newTestStore(t)
	tpl, _ := s.AddTemplate(model.TaskTemplate{Name: "Read", DefaultDuration: 30})

	for _, date := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		task, err := s.InstantiateFromTemplate(tpl, 2024, 10, date, "")
		require.NoError(t, err)
		assert.Equal(t, tpl.ID, task.TemplateID)
		assert.Equal(t, DefaultStartTime, task.StartTime)
		assert.Equal(t, "Read", task.Description)
	}

	got, _ := s.Template(tpl.ID)
	assert.Equal(t, 3, got.UsageCount)
}

func TestInstantiateFailureDoesNotCountUsage(t *testing.T) {
	s, _ := newTestStore(t)
	tpl, _ := s.AddTemplate(model.TaskTemplate{Name: "Read", DefaultDuration: 30})

	_, err := s.InstantiateFromTemplate(tpl, 2024, 10, "2024-04-01", "08:00")
	assert.ErrorIs(t, err, ErrInvalidTask)

	got, _ := s.Template(tpl.ID)
	assert.Equal(t, 0, got.UsageCount)
}

func TestDeletingTemplateKeepsLineage(t *testing.T) {
	s, _ := newTestStore(t)
	tpl, _ := s.AddTemplate(model.TaskTemplate{Name: "Read", DefaultDuration: 30})
	task, _ := s.InstantiateFromTemplate(tpl, 2024, 10, "2024-03-04", "08:00")

	s.DeleteTemplate(tpl.ID)

	got, ok := s.Task(2024, 10, task.ID)
	require.True(t, ok)
	assert.Equal(t, tpl.ID, got.TemplateID)
}
