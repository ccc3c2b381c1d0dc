package tasks

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/storage"
	"weekplan/internal/storage/storagetest"
)

type recordingRemover struct {
	ids []string
}

func (r *recordingRemover) RemoveImportedTaskByID(id string) error {
	r.ids = append(r.ids, id)
	return nil
}

func newTestStore(t *testing.T) (*Store, *recordingRemover) {
	t.Helper()
	rm := &recordingRemover{}
	return NewStore(storagetest.New(t), rm), rm
}

func slot(date, start, end, desc string) model.LocalTask {
	return model.LocalTask{Slot: model.Slot{Date: date, StartTime: start, EndTime: end, Description: desc}}
}

func strp(s string) *string { return &s }

// 2024-W10 runs Monday 2024-03-04 to Sunday 2024-03-10.

func TestAddTaskAssignsIDAndPersists(t *testing.T) {
	s, _ := newTestStore(t)

	a, err := s.AddTask(2024, 10, slot("2024-03-04", "08:00", "09:00", "Gym"))
	require.NoError(t, err)
	b, err := s.AddTask(2024, 10, slot("2024-03-04", "10:00", "11:00", "Read"))
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, model.IsImportedID(a.ID))

	got := s.Week(2024, 10)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0])
}

func TestAddTaskValidatesBeforeWriting(t *testing.T) {
	s, _ := newTestStore(t)

	cases := map[string]model.LocalTask{
		"empty description": slot("2024-03-04", "08:00", "09:00", "  "),
		"bad start":         slot("2024-03-04", "8:00", "09:00", "x"),
		"bad end":           slot("2024-03-04", "08:00", "nine", "x"),
		"end before start":  slot("2024-03-04", "10:00", "09:30", "x"),
		"bad date":          slot("04.03.2024", "08:00", "09:00", "x"),
		"other week":        slot("2024-03-11", "08:00", "09:00", "x"),
	}
	for name, task := range cases {
		_, err := s.AddTask(2024, 10, task)
		assert.ErrorIs(t, err, ErrInvalidTask, name)
	}
	assert.Empty(t, s.Week(2024, 10))
}

func TestTasksForDateFiltersBucket(t *testing.T) {
	s, _ := newTestStore(t)
	_, _ = s.AddTask(2024, 10, slot("2024-03-04", "08:00", "09:00", "Mon"))
	_, _ = s.AddTask(2024, 10, slot("2024-03-05", "08:00", "09:00", "Tue"))

	got := s.TasksForDate(2024, 10, "2024-03-05")
	require.Len(t, got, 1)
	assert.Equal(t, "Tue", got[0].Description)
	assert.Empty(t, s.TasksForDate(2024, 11, "2024-03-05"))
}

func TestUpdateTaskMergesPartially(t *testing.T) {
	s, _ := newTestStore(t)
	task, _ := s.AddTask(2024, 10, slot("2024-03-04", "08:00", "09:00", "Gym"))

	require.NoError(t, s.UpdateTask(2024, 10, task.ID, TaskPatch{Description: strp("Swim")}))

	got, ok := s.Task(2024, 10, task.ID)
	require.True(t, ok)
	assert.Equal(t, "Swim", got.Description)
	assert.Equal(t, "08:00", got.StartTime)
}

func TestUpdateTaskMissingIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.UpdateTask(2024, 10, "nope", TaskPatch{Description: strp("x")}))
	assert.NoError(t, s.UpdateTask(2030, 1, "nope", TaskPatch{}))
}

func TestUpdateTaskRejectsInvalidPatch(t *testing.T) {
	s, _ := newTestStore(t)
	task, _ := s.AddTask(2024, 10, slot("2024-03-04", "08:00", "09:00", "Gym"))

	err := s.UpdateTask(2024, 10, task.ID, TaskPatch{Description: strp("")})
	assert.ErrorIs(t, err, ErrInvalidTask)

	got, _ := s.Task(2024, 10, task.ID)
	assert.Equal(t, "Gym", got.Description)

	err = s.UpdateTask(2024, 10, task.ID, TaskPatch{StartTime: strp("09:30")})
	assert.ErrorIs(t, err, ErrInvalidTask)
	got, _ = s.Task(2024, 10, task.ID)
	assert.Equal(t, "08:00", got.StartTime)
}

func TestUpdateTaskDateAcrossWeeksRelocatesBucket(t *testing.T) {
	s, _ := newTestStore(t)
	task, _ := s.AddTask(2024, 10, slot("2024-03-10", "08:00", "09:00", "Gym"))

	require.NoError(t, s.UpdateTask(2024, 10, task.ID, TaskPatch{Date: strp("2024-03-11")}))

	assert.Empty(t, s.Week(2024, 10))
	moved, ok := s.Task(2024, 11, task.ID)
	require.True(t, ok)
	assert.Equal(t, "2024-03-11", moved.Date)
}

func TestMoveTaskPreservesDuration(t *testing.T) {
	s, _ := newTestStore(t)
	task, _ := s.AddTask(2024, 10, slot("2024-03-04", "10:00", "10:30", "Call"))

	p, err := s.MoveTask(2024, 10, task.ID, "2024-03-07", "14:00")
	require.NoError(t, err)
	assert.Equal(t, model.Placement{Date: "2024-03-07", StartTime: "14:00", EndTime: "14:30"}, p)

	got, _ := s.Task(2024, 10, task.ID)
	assert.Equal(t, "14:30", got.EndTime)
	assert.Equal(t, "2024-03-07", got.Date)
}

func TestMoveTaskAcrossYearBoundary(t *testing.T) {
	s, _ := newTestStore(t)
	// 2024-12-29 is a Sunday in 2024-W52; 2024-12-30 already is 2025-W01.
	task, _ := s.AddTask(2024, 52, slot("2024-12-29", "22:00", "23:30", "Party"))

	p, err := s.MoveTask(2024, 52, task.ID, "2024-12-30", "23:00")
	require.NoError(t, err)
	assert.Equal(t, "24:30", p.EndTime)

	assert.Empty(t, s.Week(2024, 52))
	_, ok := s.Task(2025, 1, task.ID)
	assert.True(t, ok)
}

func TestMoveTaskErrors(t *testing.T) {
	s, _ := newTestStore(t)
	task, _ := s.AddTask(2024, 10, slot("2024-03-04", "10:00", "10:30", "Call"))

	_, err := s.MoveTask(2024, 10, "missing", "2024-03-05", "10:00")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = s.MoveTask(2024, 10, task.ID, "2024-03-05", "25:00")
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = s.MoveTask(2024, 10, "ical-src-evt", "2024-03-05", "10:00")
	assert.ErrorIs(t, err, ErrImportedTask)
}

func TestDeleteTaskRoutesImportedIDs(t *testing.T) {
	s, rm := newTestStore(t)
	task, _ := s.AddTask(2024, 10, slot("2024-03-04", "10:00", "10:30", "Call"))

	before, err := s.kv.Get(storage.KeyWeeklyAgenda)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(2024, 10, "ical-src1-evtA"))
	assert.Equal(t, []string{"ical-src1-evtA"}, rm.ids)

	after, err := s.kv.Get(storage.KeyWeeklyAgenda)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, s.DeleteTask(2024, 10, task.ID))
	assert.Empty(t, s.Week(2024, 10))
	assert.NoError(t, s.DeleteTask(2024, 10, task.ID))
}

func TestBrokenStorageDegrades(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	t.Cleanup(func() { appLog.SetOutput(nil) })

	s := NewStore(storagetest.Broken{}, nil)

	task, err := s.AddTask(2024, 10, slot("2024-03-04", "10:00", "10:30", "Call"))
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Empty(t, s.Week(2024, 10))
	assert.Contains(t, buf.String(), "storage write dropped")
	assert.Contains(t, buf.String(), "storage read degraded to empty")
}

func TestCorruptStorageReadsEmpty(t *testing.T) {
	appLog.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { appLog.SetOutput(nil) })

	kv := storagetest.New(t)
	storagetest.Corrupt(t, kv, storage.KeyWeeklyAgenda)
	s := NewStore(kv, nil)

	assert.Empty(t, s.Week(2024, 10))
	_, err := s.AddTask(2024, 10, slot("2024-03-04", "10:00", "10:30", "Call"))
	require.NoError(t, err)
	assert.Len(t, s.Week(2024, 10), 1)
}
