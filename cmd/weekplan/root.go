package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"weekplan/internal/app"
	"weekplan/internal/config"
	appLog "weekplan/internal/log"
	"weekplan/internal/weekdate"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	listen     string
	dataPath   string
	logLevel   string
	jsonOut    bool
}

// env is built before a subcommand runs and torn down after it.
type env struct {
	flags globalFlags
	cfg   *config.Config
	app   *app.App
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "weekplan",
		Short: "Weekly planner with calendar import and image export",
		Long: `weekplan keeps a weekly agenda of tasks and templates, imports public
iCalendar feeds as read-only tasks, and exports a week as a PNG or JPEG
image for sharing.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsApp(cmd) {
				return nil
			}
			return e.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return e.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.configPath, "config", config.DefaultPath(), "Path to config file")
	pf.StringVar(&e.flags.listen, "listen", "", "HTTP listen address (overrides config if set)")
	pf.StringVar(&e.flags.dataPath, "data", "", "SQLite data file (overrides config if set)")
	pf.StringVar(&e.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&e.flags.jsonOut, "json", false, "Print JSON instead of text")

	root.AddCommand(
		weekCmd(e),
		taskCmd(e),
		templateCmd(e),
		sourceCmd(e),
		exportCmd(e),
		shareCmd(e),
		settingsCmd(e),
		verseCmd(e),
		serveCmd(e),
	)
	return root
}

// needsApp is false for cobra's built-in help and completion commands.
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion":
			return false
		}
	}
	return true
}

func (e *env) open() error {
	cfg, err := config.Load(e.flags.configPath)
	if err != nil {
		if cfg == nil {
			return fmt.Errorf("load config %s: %w", e.flags.configPath, err)
		}
		appLog.Warn("config could not be written, using defaults", "path", e.flags.configPath, "err", err)
	}
	if e.flags.listen != "" {
		cfg.Listen = e.flags.listen
	}
	if e.flags.dataPath != "" {
		cfg.DataPath = e.flags.dataPath
	}
	if e.flags.logLevel != "" {
		cfg.LogLevel = e.flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	e.cfg, e.app = cfg, a
	return nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// weekFlags adds --year/--week, defaulting to the current ISO week.
type weekFlags struct {
	year, week int
}

func (w *weekFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&w.year, "year", 0, "ISO week-numbering year (default: current)")
	cmd.Flags().IntVar(&w.week, "week", 0, "ISO week (default: current)")
}

func (w *weekFlags) resolve() (int, int, error) {
	year, week := weekdate.Current(time.Now())
	if w.year != 0 {
		year = w.year
	}
	if w.week != 0 {
		week = w.week
	}
	if !weekdate.ValidWeek(year, week) {
		return 0, 0, fmt.Errorf("%w: %d-W%02d", app.ErrInvalidWeek, year, week)
	}
	return year, week, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
