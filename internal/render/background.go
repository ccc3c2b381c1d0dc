package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strings"
)

type BackgroundKind int

const (
	BackgroundNone BackgroundKind = iota
	BackgroundColor
	BackgroundGradient
	BackgroundImage
)

// Background is what the document is painted on.
type Background struct {
	Kind BackgroundKind
	// Identity drives SchemeFor: preset id plus its CSS value, the color
	// hex, or the image name.
	Identity string
	// CSS is the equivalent CSS background value, used by HTML renderers.
	CSS string

	Color    color.NRGBA // BackgroundColor
	From, To color.NRGBA // BackgroundGradient, top to bottom
	Image    image.Image // BackgroundImage, drawn cover-fit and centered
}

// Preset is a predefined background.
type Preset struct {
	ID   string
	Name string
	CSS  string
}

// Presets lists the predefined backgrounds in display order.
var Presets = []Preset{
	{"gradient-blue", "Blauer Verlauf", "linear-gradient(to bottom, #4f46e5, #7c3aed)"},
	{"gradient-green", "Grüner Verlauf", "linear-gradient(to bottom, #10b981, #059669)"},
	{"gradient-sunset", "Sonnenuntergang", "linear-gradient(to bottom, #f59e0b, #ef4444)"},
	{"gradient-purple", "Lila Verlauf", "linear-gradient(to bottom, #8b5cf6, #a855f7)"},
	{"gradient-ocean", "Ozean Verlauf", "linear-gradient(to bottom, #0ea5e9, #0284c7)"},
	{"minimal-white", "Minimales Weiß", "#ffffff"},
	{"minimal-light-gray", "Helles Grau", "#f8fafc"},
	{"elegant-beige", "Elegantes Beige", "linear-gradient(to bottom, #f7f3f0, #e8ddd4)"},
	{"soft-cream", "Weiches Creme", "#faf9f7"},
}

var ErrUnknownPreset = errors.New("unknown background preset")

func PresetByID(id string) (Preset, bool) {
	for _, p := range Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// NoBackground leaves the document transparent.
func NoBackground() Background { return Background{Kind: BackgroundNone} }

// SolidBackground paints one color.
func SolidBackground(hex string) (Background, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return Background{}, err
	}
	return Background{Kind: BackgroundColor, Identity: strings.ToLower(hex), CSS: Hex(c), Color: c}, nil
}

// ImageBackground paints img cover-fit. name feeds the color scheme.
func ImageBackground(name string, img image.Image) Background {
	return Background{Kind: BackgroundImage, Identity: name, Image: img}
}

// PresetBackground resolves a predefined background by id.
func PresetBackground(id string) (Background, error) {
	p, ok := PresetByID(id)
	if !ok {
		return Background{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	bg, err := ParseCSS(p.CSS)
	if err != nil {
		return Background{}, err
	}
	bg.Identity = p.ID + " " + p.CSS
	return bg, nil
}

var gradientRe = regexp.MustCompile(`^linear-gradient\(\s*to bottom\s*,\s*(#[0-9a-fA-F]{3,8})\s*,\s*(#[0-9a-fA-F]{3,8})\s*\)$`)

// ParseCSS understands the two CSS forms the presets use: a hex color and
// a two-stop vertical linear gradient.
func ParseCSS(css string) (Background, error) {
	css = strings.TrimSpace(css)
	if strings.HasPrefix(css, "#") {
		return SolidBackground(css)
	}
	m := gradientRe.FindStringSubmatch(css)
	if m == nil {
		return Background{}, fmt.Errorf("unsupported background %q", css)
	}
	from, err := ParseHex(m[1])
	if err != nil {
		return Background{}, err
	}
	to, err := ParseHex(m[2])
	if err != nil {
		return Background{}, err
	}
	return Background{Kind: BackgroundGradient, Identity: css, CSS: css, From: from, To: to}, nil
}
