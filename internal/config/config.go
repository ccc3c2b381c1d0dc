package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultDataPath    = "~/.local/share/weekplan/weekplan.db"
	defaultLocale      = "de"
	defaultLogLevel    = "info"
	defaultSyncTimeout = 15
	defaultEngine      = "native"
)

// SyncConfig controls calendar feed synchronization.
type SyncConfig struct {
	// Refresh is a cron-style schedule (e.g. "*/30 * * * *") used by
	// `weekplan serve` to resync every source. Empty disables auto-sync.
	Refresh string `yaml:"refresh" json:"refresh"`

	// TimeoutSeconds bounds a single feed download.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// ExportConfig controls how export images are produced. The visual
// preferences (format, background, scale) live in the storage service.
type ExportConfig struct {
	// Engine selects the rasterizer:
	//   - "native" (default): pure Go drawing
	//   - "chromium": headless Chromium screenshot via chromedp
	Engine string `yaml:"engine" json:"engine"`

	// OutputDir is where downloads are written.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the local API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for `weekplan serve`.
	Listen string `yaml:"listen" json:"listen"`

	// DataPath is the SQLite file backing the storage service.
	DataPath string `yaml:"data_path" json:"data_path"`

	// Locale selects labels for exports ("de" or "en").
	Locale string `yaml:"locale" json:"locale"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Sync   SyncConfig   `yaml:"sync" json:"sync"`
	Export ExportConfig `yaml:"export" json:"export"`

	// BasicAuth, if set with both fields, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultPath returns ~/.config/weekplan/config.yaml, or a relative path
// when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "weekplan.yaml"
	}
	return filepath.Join(home, ".config", "weekplan", "config.yaml")
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		DataPath: defaultDataPath,
		Locale:   defaultLocale,
		LogLevel: defaultLogLevel,
		Sync: SyncConfig{
			Refresh:        "",
			TimeoutSeconds: defaultSyncTimeout,
		},
		Export: ExportConfig{
			Engine:    defaultEngine,
			OutputDir: ".",
		},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DataPath == "" {
		c.DataPath = defaultDataPath
	}
	switch c.Locale {
	case "de", "en":
	default:
		c.Locale = defaultLocale
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Sync.TimeoutSeconds <= 0 {
		c.Sync.TimeoutSeconds = defaultSyncTimeout
	}
	switch c.Export.Engine {
	case "native", "chromium":
	default:
		c.Export.Engine = defaultEngine
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "."
	}
}

// ResolvedDataPath expands a leading "~" in DataPath. ":memory:" is
// returned untouched.
func (c *Config) ResolvedDataPath() (string, error) {
	return expandHome(c.DataPath)
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (parent directory created as needed) and returned.
//   - Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file in the same directory,
// then rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
