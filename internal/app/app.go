// Package app wires the planner together: it owns the storage service and
// builds every component on top of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weekplan/internal/agenda"
	"weekplan/internal/calendar"
	"weekplan/internal/capture"
	"weekplan/internal/config"
	"weekplan/internal/ics"
	appLog "weekplan/internal/log"
	"weekplan/internal/prefs"
	"weekplan/internal/render"
	"weekplan/internal/share"
	"weekplan/internal/storage"
	"weekplan/internal/tasks"
	"weekplan/internal/verse"
	"weekplan/internal/weekdate"
)

var ErrInvalidWeek = errors.New("invalid ISO week")

// App holds the components of one planner process.
type App struct {
	Config *config.Config

	Tasks    *tasks.Store
	Calendar *calendar.Engine
	Agenda   *agenda.Aggregator
	Prefs    *prefs.Store
	Verse    *verse.Service
	Exporter *render.Exporter

	kv storage.KV
}

// Open opens the configured SQLite file and builds the app on it.
func Open(cfg *config.Config) (*App, error) {
	path, err := cfg.ResolvedDataPath()
	if err != nil {
		return nil, fmt.Errorf("resolve data path: %w", err)
	}
	kv, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, kv)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	appLog.Debug("storage opened", "path", path)
	return a, nil
}

// New builds the app on an already open store. The app takes ownership of
// kv and closes it in Close.
func New(cfg *config.Config, kv storage.KV) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	fonts, err := render.NewFontSet()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	var rasterizer render.Rasterizer = render.NewNativeRasterizer(fonts)
	if cfg.Export.Engine == "chromium" {
		rasterizer = capture.NewChromiumRasterizer(0)
	}

	engine := calendar.NewEngine(kv, ics.NewFetcher(kv, time.Duration(cfg.Sync.TimeoutSeconds)*time.Second))
	store := tasks.NewStore(kv, engine)

	return &App{
		Config:   cfg,
		Tasks:    store,
		Calendar: engine,
		Agenda:   agenda.NewAggregator(store, engine),
		Prefs:    prefs.NewStore(kv),
		Verse:    verse.NewService(kv),
		Exporter: render.NewExporter(rasterizer, fonts),
		kv:       kv,
	}, nil
}

// Close releases the storage service.
func (a *App) Close() error {
	if a.kv == nil {
		return nil
	}
	err := a.kv.Close()
	a.kv = nil
	return err
}

// Locale is the configured export locale.
func (a *App) Locale() render.Locale {
	return render.ParseLocale(a.Config.Locale)
}

// ExportWeek renders one week with the stored export preferences. A non
// nil override replaces them for this call only.
func (a *App) ExportWeek(ctx context.Context, year, week int, override *prefs.Settings) (render.Artifact, error) {
	if !weekdate.ValidWeek(year, week) {
		return render.Artifact{}, fmt.Errorf("%w: %d-W%02d", ErrInvalidWeek, year, week)
	}
	settings := a.Prefs.Load()
	if override != nil {
		if err := override.Validate(); err != nil {
			return render.Artifact{}, err
		}
		settings = *override
	}
	bg, err := settings.Resolve()
	if err != nil {
		return render.Artifact{}, fmt.Errorf("resolve background: %w", err)
	}

	locale := a.Locale()
	desc := a.Agenda.Week(year, week).Descriptor(locale)
	return a.Exporter.Export(ctx, desc, a.Verse.ForExport(), bg, settings.Options(locale))
}

// ShareWeek exports a week and hands it to s.
func (a *App) ShareWeek(ctx context.Context, year, week int, s share.Sharer) (share.Payload, error) {
	art, err := a.ExportWeek(ctx, year, week, nil)
	if err != nil {
		return share.Payload{}, err
	}
	p := share.Payload{Year: year, Week: week, Artifact: art}
	if err := s.Share(ctx, p); err != nil {
		return p, fmt.Errorf("share %s: %w", p.Title(), err)
	}
	return p, nil
}
