package render

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet maps FaceKinds to the embedded Go fonts and caches sized faces.
// It is safe for concurrent use and doubles as the layout Measurer.
type FontSet struct {
	fonts map[FaceKind]*opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	kind FaceKind
	size float64
}

var fontSources = map[FaceKind][]byte{
	FaceRegular: goregular.TTF,
	FaceMedium:  gomedium.TTF,
	FaceBold:    gobold.TTF,
	FaceItalic:  goitalic.TTF,
	FaceTitle:   gomediumitalic.TTF,
}

// NewFontSet parses the embedded fonts.
func NewFontSet() (*FontSet, error) {
	fs := &FontSet{
		fonts: make(map[FaceKind]*opentype.Font, len(fontSources)),
		faces: make(map[faceKey]font.Face),
	}
	for kind, ttf := range fontSources {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font %d: %w", kind, err)
		}
		fs.fonts[kind] = f
	}
	return fs, nil
}

// faceLocked returns the face for kind at size pixels (72 DPI, so points
// equal pixels). Faces are not safe for concurrent use. Callers hold fs.mu.
func (fs *FontSet) faceLocked(kind FaceKind, size float64) (font.Face, error) {
	key := faceKey{kind, math.Round(size*100) / 100}
	if f, ok := fs.faces[key]; ok {
		return f, nil
	}
	src, ok := fs.fonts[kind]
	if !ok {
		return nil, fmt.Errorf("no font for face %d", kind)
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	fs.faces[key] = face
	return face, nil
}

// Advance implements Measurer.
func (fs *FontSet) Advance(style TextStyle, s string) float64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	face, err := fs.faceLocked(style.Face, style.Size)
	if err != nil {
		// estimate rather than fail layout; rasterizing reports the error
		return float64(len([]rune(s))) * style.Size * 0.6
	}
	return float64(font.MeasureString(face, s)) / 64
}
