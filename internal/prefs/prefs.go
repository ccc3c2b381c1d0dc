// Package prefs persists export preferences and resolves them into a
// render background and export options.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"weekplan/internal/convert"
	appLog "weekplan/internal/log"
	"weekplan/internal/render"
	"weekplan/internal/storage"
)

// Background types.
const (
	BackgroundNone  = "none"
	BackgroundColor = "color"
	BackgroundImage = "image"
)

// CustomBackground selects the uploaded image instead of a preset.
const CustomBackground = "custom"

var ErrInvalidSettings = errors.New("invalid export settings")

// Settings mirrors the persisted export preferences.
type Settings struct {
	Format             string `json:"format"`  // png | jpeg
	Quality            int    `json:"quality"` // 1..100, JPEG only
	BackgroundType     string `json:"backgroundType"`
	SelectedBackground string `json:"selectedBackground"`          // preset id or "custom"
	CustomBackground   string `json:"customBackground,omitempty"` // data URL of the upload
	BackgroundColor    string `json:"backgroundColor"`
	Scale              int    `json:"scale"` // 1..3
}

func Defaults() Settings {
	return Settings{
		Format:          convert.FormatPNG,
		Quality:         90,
		BackgroundType:  BackgroundNone,
		BackgroundColor: "#ffffff",
		Scale:           2,
	}
}

// Validate checks ranges and references. It does not decode the upload.
func (s Settings) Validate() error {
	if _, err := convert.NormalizeFormat(s.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.Quality < 1 || s.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside 1..100", ErrInvalidSettings, s.Quality)
	}
	if s.Scale < 1 || s.Scale > 3 {
		return fmt.Errorf("%w: scale %d outside 1..3", ErrInvalidSettings, s.Scale)
	}
	if _, err := render.ParseHex(s.BackgroundColor); err != nil {
		return fmt.Errorf("%w: background color: %v", ErrInvalidSettings, err)
	}
	switch s.BackgroundType {
	case BackgroundNone, BackgroundColor:
	case BackgroundImage:
		if s.SelectedBackground == CustomBackground {
			if s.CustomBackground == "" {
				return fmt.Errorf("%w: custom background without an image", ErrInvalidSettings)
			}
			break
		}
		if _, ok := render.PresetByID(s.SelectedBackground); !ok {
			return fmt.Errorf("%w: unknown background %q", ErrInvalidSettings, s.SelectedBackground)
		}
	default:
		return fmt.Errorf("%w: background type %q", ErrInvalidSettings, s.BackgroundType)
	}
	return nil
}

// Resolve turns the preferences into the background to paint.
func (s Settings) Resolve() (render.Background, error) {
	switch s.BackgroundType {
	case BackgroundColor:
		return render.SolidBackground(s.BackgroundColor)
	case BackgroundImage:
		if s.SelectedBackground == CustomBackground {
			img, err := DecodeDataURL(s.CustomBackground)
			if err != nil {
				return render.Background{}, err
			}
			return render.ImageBackground(CustomBackground, img), nil
		}
		return render.PresetBackground(s.SelectedBackground)
	}
	return render.NoBackground(), nil
}

// Options converts the preferences into export options.
func (s Settings) Options(locale render.Locale) render.Options {
	return render.Options{
		Format:  s.Format,
		Quality: float64(s.Quality) / 100,
		Scale:   s.Scale,
		Locale:  locale,
	}
}

// Store keeps the settings under one key. Like the task store it never
// surfaces storage failures.
type Store struct {
	kv storage.KV
	mu sync.Mutex
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored settings merged over the defaults, so fields
// written by older versions still get a value.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Defaults()
	raw := storage.ReadOrEmpty[json.RawMessage](s.kv, storage.KeyExportSettings)
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		appLog.Warn("export settings unreadable, using defaults", "err", err)
		return Defaults()
	}
	out.Format = strings.ToLower(out.Format)
	return out
}

// Save validates and stores settings.
func (s *Store) Save(settings Settings) error {
	format, err := convert.NormalizeFormat(settings.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	settings.Format = format
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	storage.WriteOrDrop(s.kv, storage.KeyExportSettings, settings)
	appLog.Debug("export settings saved", "format", settings.Format, "background", settings.BackgroundType, "scale", settings.Scale)
	return nil
}

// Reset drops the stored settings; the next Load returns the defaults.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	storage.RemoveOrDrop(s.kv, storage.KeyExportSettings)
}
