package app

import (
	"bytes"
	"context"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/config"
	"weekplan/internal/model"
	"weekplan/internal/prefs"
	"weekplan/internal/render"
	"weekplan/internal/share"
)

func newApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataPath = filepath.Join(t.TempDir(), "data", "weekplan.db")
	a, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestTemplateToExport(t *testing.T) {
	a := newApp(t)

	tpl, err := a.Tasks.AddTemplate(model.TaskTemplate{Name: "Workout", DefaultDuration: 45})
	require.NoError(t, err)
	task, err := a.Tasks.InstantiateFromTemplate(tpl, 2024, 10, "2024-03-04", "07:00")
	require.NoError(t, err)
	assert.Equal(t, "07:45", task.EndTime)

	merged := a.Agenda.MergedTasksForDate(2024, 10, "2024-03-04")
	require.Len(t, merged, 1)
	assert.Equal(t, task.ID, merged[0].TaskID())

	override := prefs.Defaults()
	override.Scale = 1
	art, err := a.ExportWeek(context.Background(), 2024, 10, &override)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.Equal(t, render.DocWidth, img.Bounds().Dx())
}

func TestExportRejectsInvalidWeek(t *testing.T) {
	a := newApp(t)
	_, err := a.ExportWeek(context.Background(), 2024, 53, nil)
	assert.ErrorIs(t, err, ErrInvalidWeek)
}

func TestShareWeekDownloads(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Prefs.Save(prefs.Settings{
		Format: "jpeg", Quality: 80, BackgroundType: prefs.BackgroundImage,
		SelectedBackground: "gradient-green", BackgroundColor: "#ffffff", Scale: 1,
	}))
	a.Verse.SetEnabled(true)

	d := share.NewDownloader(t.TempDir())
	p, err := a.ShareWeek(context.Background(), 2024, 10, d)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", p.Artifact.Format)
	assert.Equal(t, "wochenplan-2024-kw10.jpeg", filepath.Base(d.Saved))
}

func TestCloseIsIdempotent(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}
