// Package calendar imports public iCalendar feeds as read-only tasks.
// Every sync of a source replaces all of that source's imported tasks.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"weekplan/internal/ics"
	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/storage"
	"weekplan/internal/weekdate"
)

var (
	ErrSourceNotFound = errors.New("calendar source not found")
	ErrInvalidSource  = errors.New("invalid calendar source")
)

// UntitledEvent replaces a missing SUMMARY.
const UntitledEvent = "Untitled Event"

// UnknownSource names the source of an orphaned imported task.
const UnknownSource = "Unknown Source"

// Palette is the rotation of accent colors handed to new sources.
var Palette = []string{
	"#ef4444", // red
	"#f59e0b", // amber
	"#10b981", // emerald
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#06b6d4", // cyan
	"#84cc16", // lime
}

// Sync steps reported in SyncError.
const (
	StepFetch = "fetch"
	StepParse = "parse"
)

// SyncError names the source and the step that failed.
type SyncError struct {
	SourceID   string
	SourceName string
	Step       string
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %q failed at %s: %v", e.SourceName, e.Step, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Fetcher is the feed transport used by the engine.
type Fetcher interface {
	Fetch(ctx context.Context, src ics.Source) (ics.FetchResult, error)
	Forget(sourceID string)
}

// SyncSummary aggregates a SyncAllSources run.
type SyncSummary struct {
	TotalSources  int      `json:"totalSources"`
	SuccessCount  int      `json:"successCount"`
	FailedSources []string `json:"failedSources"`
	TotalTasks    int      `json:"totalTasks"`
}

// TaskWithSource is an imported task joined with its source's label.
type TaskWithSource struct {
	model.ImportedTask
	SourceName  string `json:"sourceName"`
	SourceColor string `json:"sourceColor,omitempty"`
}

// MarshalJSON flattens the task next to the source fields.
func (t TaskWithSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		model.TaskView
		SourceName  string `json:"sourceName"`
		SourceColor string `json:"sourceColor,omitempty"`
	}{model.View(t.ImportedTask), t.SourceName, t.SourceColor})
}

// Engine owns calendar sources and the tasks imported from them.
type Engine struct {
	kv      storage.KV
	fetcher Fetcher
	now     func() time.Time

	// mu serializes read-modify-write cycles on the two persisted lists.
	mu sync.Mutex
	sf singleflight.Group
}

func NewEngine(kv storage.KV, fetcher Fetcher) *Engine {
	return &Engine{kv: kv, fetcher: fetcher, now: time.Now}
}

func (e *Engine) loadSources() []model.CalendarSource {
	return storage.ReadOrEmpty[[]model.CalendarSource](e.kv, storage.KeySources)
}

func (e *Engine) saveSources(sources []model.CalendarSource) {
	storage.WriteOrDrop(e.kv, storage.KeySources, sources)
}

func (e *Engine) loadTasks() []model.ImportedTask {
	return storage.ReadOrEmpty[[]model.ImportedTask](e.kv, storage.KeyImportedTasks)
}

func (e *Engine) saveTasks(tasks []model.ImportedTask) {
	storage.WriteOrDrop(e.kv, storage.KeyImportedTasks, tasks)
}

func validateSource(rawURL, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSource)
	}
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidSource)
	}
	u, err := url.Parse(ics.NormalizeURL(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s is not an http(s) or webcal URL", ErrInvalidSource, appLog.RedactURL(rawURL))
	}
	return nil
}

// AddSource registers a feed without fetching it. Callers that want the
// validate-by-first-sync behavior use AddAndSyncSource.
func (e *Engine) AddSource(rawURL, name string) (model.CalendarSource, error) {
	if err := validateSource(rawURL, name); err != nil {
		return model.CalendarSource{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sources := e.loadSources()
	src := model.CalendarSource{
		ID:      model.NewSourceID(),
		URL:     strings.TrimSpace(rawURL),
		Name:    strings.TrimSpace(name),
		AddedAt: e.now().UTC(),
		Color:   Palette[len(sources)%len(Palette)],
	}
	e.saveSources(append(sources, src))

	appLog.Info("calendar source added", "id", src.ID, "name", src.Name, "url", appLog.RedactURL(src.URL))
	return src, nil
}

// AddAndSyncSource adds a source and syncs it immediately. If the first
// sync fails the source is removed again and the sync error returned.
func (e *Engine) AddAndSyncSource(ctx context.Context, rawURL, name string) (model.CalendarSource, int, error) {
	src, err := e.AddSource(rawURL, name)
	if err != nil {
		return model.CalendarSource{}, 0, err
	}
	n, err := e.SyncSource(ctx, src.ID)
	if err != nil {
		if rmErr := e.RemoveSource(src.ID); rmErr != nil {
			appLog.Error("calendar source rollback failed", rmErr, "id", src.ID)
		}
		appLog.Warn("calendar source rolled back after failed first sync", "id", src.ID, "name", src.Name)
		return model.CalendarSource{}, 0, err
	}
	src, _ = e.Source(src.ID)
	return src, n, nil
}

// SyncSource fetches and parses one feed and replaces all tasks imported
// from it. Concurrent calls for the same source share one run.
func (e *Engine) SyncSource(ctx context.Context, sourceID string) (int, error) {
	v, err, shared := e.sf.Do(sourceID, func() (any, error) {
		return e.syncSource(ctx, sourceID)
	})
	if shared {
		appLog.Debug("calendar sync coalesced", "id", sourceID)
	}
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (e *Engine) syncSource(ctx context.Context, sourceID string) (int, error) {
	src, ok := e.Source(sourceID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}

	feedSrc := ics.Source{ID: src.ID, URL: src.URL}
	res, err := e.fetcher.Fetch(ctx, feedSrc)
	if err != nil {
		return 0, &SyncError{SourceID: src.ID, SourceName: src.Name, Step: StepFetch, Err: err}
	}
	events, err := ics.Parse(feedSrc, res.Body)
	if err != nil {
		return 0, &SyncError{SourceID: src.ID, SourceName: src.Name, Step: StepParse, Err: err}
	}

	fresh := toTasks(src.ID, events)

	e.mu.Lock()
	defer e.mu.Unlock()

	// the source may have been removed while the feed was in flight
	sources := e.loadSources()
	idx := -1
	for i := range sources {
		if sources[i].ID == src.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}

	all := e.loadTasks()
	next := make([]model.ImportedTask, 0, len(all)+len(fresh))
	for _, t := range all {
		if t.SourceID != src.ID {
			next = append(next, t)
		}
	}
	next = append(next, fresh...)
	e.saveTasks(next)

	synced := e.now().UTC()
	sources[idx].LastSynced = &synced
	e.saveSources(sources)

	appLog.Info("calendar source synced", "id", src.ID, "name", src.Name, "tasks", len(fresh), "from_cache", res.FromCache)
	return len(fresh), nil
}

// toTasks maps parsed events to imported tasks. A UID repeated within one
// feed (overridden instances) gets a suffix so ids stay unique.
func toTasks(sourceID string, events []ics.Event) []model.ImportedTask {
	out := make([]model.ImportedTask, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		summary := strings.TrimSpace(ev.Summary)
		if summary == "" {
			summary = UntitledEvent
		}
		desc := summary
		if ev.Location != "" {
			desc = summary + " @ " + ev.Location
		}

		var slot model.Slot
		if ev.AllDay {
			// date values carry no zone; keep their own calendar day
			slot = model.Slot{Date: ev.Start.Format("2006-01-02"), StartTime: "00:00", EndTime: "00:00"}
		} else {
			start, end := ev.Start.Local(), ev.End.Local()
			slot = model.Slot{Date: weekdate.DateKey(start), StartTime: start.Format("15:04"), EndTime: end.Format("15:04")}
		}
		slot.Description = desc

		uid := uniqueEventID(seen, ev)
		seen[uid] = true

		out = append(out, model.ImportedTask{
			Slot:            slot,
			SourceID:        sourceID,
			OriginalEventID: uid,
			Location:        ev.Location,
		})
	}
	return out
}

// uniqueEventID returns the UID itself, else the UID with the event start
// appended, else that plus a counter, whichever is not yet in seen.
func uniqueEventID(seen map[string]bool, ev ics.Event) string {
	if !seen[ev.UID] {
		return ev.UID
	}
	base := ev.UID + "-" + ev.Start.Format("20060102T1504")
	id := base
	for n := 2; seen[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// SyncAllSources syncs every source in registration order. A failing
// source is recorded by name and does not stop the run.
func (e *Engine) SyncAllSources(ctx context.Context) SyncSummary {
	sources := e.Sources()
	summary := SyncSummary{TotalSources: len(sources), FailedSources: []string{}}

	for _, src := range sources {
		n, err := e.SyncSource(ctx, src.ID)
		if err != nil {
			appLog.Error("calendar source sync failed", err, "id", src.ID, "name", src.Name)
			summary.FailedSources = append(summary.FailedSources, src.Name)
			continue
		}
		summary.SuccessCount++
		summary.TotalTasks += n
	}

	appLog.Info("calendar sync finished", "sources", summary.TotalSources, "ok", summary.SuccessCount, "failed", len(summary.FailedSources), "tasks", summary.TotalTasks)
	return summary
}

// RemoveSource deletes a source and every task imported from it.
func (e *Engine) RemoveSource(sourceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sources := e.loadSources()
	kept := sources[:0:0]
	for _, s := range sources {
		if s.ID != sourceID {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(sources) {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}
	e.saveSources(kept)

	tasks := e.loadTasks()
	keptTasks := tasks[:0:0]
	for _, t := range tasks {
		if t.SourceID != sourceID {
			keptTasks = append(keptTasks, t)
		}
	}
	e.saveTasks(keptTasks)

	if e.fetcher != nil {
		e.fetcher.Forget(sourceID)
	}
	appLog.Info("calendar source removed", "id", sourceID, "tasks_removed", len(tasks)-len(keptTasks))
	return nil
}

// RemoveImportedTask drops one imported task until the next sync of its
// source brings it back.
func (e *Engine) RemoveImportedTask(sourceID, eventID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tasks := e.loadTasks()
	kept := tasks[:0:0]
	for _, t := range tasks {
		if !(t.SourceID == sourceID && t.OriginalEventID == eventID) {
			kept = append(kept, t)
		}
	}
	if len(kept) != len(tasks) {
		e.saveTasks(kept)
	}
}

// RemoveImportedTaskByID decodes a composite "ical-" id and removes that
// task.
func (e *Engine) RemoveImportedTaskByID(id string) error {
	src, evt, err := model.DecodeImportedID(id)
	if err != nil {
		return err
	}
	e.RemoveImportedTask(src, evt)
	return nil
}

// Sources lists sources in registration order.
func (e *Engine) Sources() []model.CalendarSource {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadSources()
}

func (e *Engine) Source(id string) (model.CalendarSource, bool) {
	for _, s := range e.Sources() {
		if s.ID == id {
			return s, true
		}
	}
	return model.CalendarSource{}, false
}

func (e *Engine) filterTasks(keep func(model.ImportedTask) bool) []model.ImportedTask {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []model.ImportedTask
	for _, t := range e.loadTasks() {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) TasksForDate(dateKey string) []model.ImportedTask {
	return e.filterTasks(func(t model.ImportedTask) bool { return t.Date == dateKey })
}

func (e *Engine) TasksForSource(sourceID string) []model.ImportedTask {
	return e.filterTasks(func(t model.ImportedTask) bool { return t.SourceID == sourceID })
}

// TasksWithSource returns every imported task with its source's name and
// color.
func (e *Engine) TasksWithSource() []TaskWithSource {
	e.mu.Lock()
	tasks, sources := e.loadTasks(), e.loadSources()
	e.mu.Unlock()

	byID := make(map[string]model.CalendarSource, len(sources))
	for _, s := range sources {
		byID[s.ID] = s
	}
	out := make([]TaskWithSource, 0, len(tasks))
	for _, t := range tasks {
		ts := TaskWithSource{ImportedTask: t, SourceName: UnknownSource}
		if s, ok := byID[t.SourceID]; ok {
			ts.SourceName = s.Name
			ts.SourceColor = s.Color
		}
		out = append(out, ts)
	}
	return out
}
