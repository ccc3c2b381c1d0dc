package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
)

type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	appLog.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { appLog.SetOutput(nil) })
	return &cli{t: t, dir: t.TempDir()}
}

// run executes one command against the temp config and database.
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--config", filepath.Join(c.dir, "config.yaml"),
		"--data", filepath.Join(c.dir, "weekplan.db"),
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	c := newCLI(t)
	c.mustRun("template", "list")

	_, err := os.Stat(filepath.Join(c.dir, "config.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(c.dir, "weekplan.db"))
	assert.NoError(t, err)
}

func TestTaskLifecycle(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("--json", "task", "add", "--date", "2024-03-06", "--start", "09:00", "--end", "10:30", "--desc", "Zahnarzt")
	var added model.TaskView
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	require.NotEmpty(t, added.ID)
	assert.Equal(t, "10:30", added.EndTime)

	c.mustRun("task", "move", added.ID, "--year", "2024", "--week", "10", "--date", "2024-03-08", "--start", "14:00")
	c.mustRun("task", "update", added.ID, "--year", "2024", "--week", "10", "--desc", "Zahnarzt Kontrolle")

	out = c.mustRun("--json", "week", "--year", "2024", "--week", "10")
	var week struct {
		Days map[string][]model.TaskView `json:"days"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &week))
	assert.Len(t, week.Days, 7)
	assert.Empty(t, week.Days["2024-03-06"])
	require.Len(t, week.Days["2024-03-08"], 1)
	moved := week.Days["2024-03-08"][0]
	assert.Equal(t, "14:00", moved.StartTime)
	assert.Equal(t, "15:30", moved.EndTime)
	assert.Equal(t, "Zahnarzt Kontrolle", moved.Description)

	c.mustRun("task", "delete", added.ID, "--year", "2024", "--week", "10")
	out = c.mustRun("week", "--year", "2024", "--week", "10")
	assert.Equal(t, 7, strings.Count(out, "  Frei\n"))
}

func TestTaskAddRejectsBadInput(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("task", "add", "--date", "06.03.2024", "--start", "09:00", "--desc", "x")
	assert.Error(t, err)
	_, err = c.run("task", "add", "--date", "2024-03-06", "--start", "25:00", "--desc", "x")
	assert.Error(t, err)
	_, err = c.run("week", "--year", "2024", "--week", "60")
	assert.Error(t, err)
}

func TestTemplateUse(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("--json", "template", "add", "--name", "Sport", "--desc", "Laufen", "--duration", "45")
	var tpl model.TaskTemplate
	require.NoError(t, json.Unmarshal([]byte(out), &tpl))

	out = c.mustRun("--json", "template", "use", tpl.ID, "--date", "2024-03-05", "--start", "18:00")
	var task model.TaskView
	require.NoError(t, json.Unmarshal([]byte(out), &task))
	assert.Equal(t, "18:45", task.EndTime)
	assert.Equal(t, "Laufen", task.Description)
	assert.Equal(t, tpl.ID, task.TemplateID)

	out = c.mustRun("template", "list")
	assert.Contains(t, out, "Sport")

	_, err := c.run("template", "use", "nope", "--date", "2024-03-05", "--start", "18:00")
	assert.Error(t, err)
}

func TestExportWritesImage(t *testing.T) {
	c := newCLI(t)
	c.mustRun("task", "add", "--date", "2024-03-06", "--start", "09:00", "--end", "10:00", "--desc", "Meeting")

	path := filepath.Join(c.dir, "week.png")
	c.mustRun("export", "--year", "2024", "--week", "10", "--scale", "1", "--out", path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 375, cfg.Width)
	assert.GreaterOrEqual(t, cfg.Height, 667)

	_, err = c.run("export", "--year", "2024", "--week", "10", "--scale", "7", "--out", path)
	assert.Error(t, err)
}

func TestSettingsSetAndReset(t *testing.T) {
	c := newCLI(t)

	c.mustRun("settings", "set", "--format", "jpeg", "--quality", "70", "--background", "image", "--preset", "gradient-ocean")
	out := c.mustRun("settings", "show")
	assert.Contains(t, out, `"format": "jpeg"`)
	assert.Contains(t, out, `"selectedBackground": "gradient-ocean"`)

	_, err := c.run("settings", "set", "--scale", "9")
	assert.Error(t, err)

	c.mustRun("settings", "reset")
	out = c.mustRun("settings", "show")
	assert.Contains(t, out, `"format": "png"`)
}

func TestShareLink(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("share", "--year", "2024", "--week", "10", "--target", "whatsapp")
	assert.Contains(t, out, "https://wa.me/?text=Mein%20Wochenplaner%20KW%2010%202024")

	_, err := c.run("share", "--target", "fax")
	assert.Error(t, err)
}

func TestVerseToggle(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("verse", "off")
	assert.Contains(t, out, "disabled")

	out = c.mustRun("--json", "verse", "on")
	var resp struct {
		Enabled bool `json:"enabled"`
		Verse   struct {
			Text string `json:"text"`
		} `json:"verse"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Enabled)
	assert.NotEmpty(t, resp.Verse.Text)
}

func TestVerseFind(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("verse", "find", "psalm 23")
	assert.Contains(t, out, "Psalm 23,1")

	_, err := c.run("verse", "find", "Hesekiel")
	assert.Error(t, err)
}
