// Package convert turns rasterized export bitmaps into PNG or JPEG bytes.
package convert

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"
)

// Supported output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

var (
	ErrInvalidQuality = errors.New("jpeg quality must be within [0,1]")
	ErrUnknownFormat  = errors.New("unknown image format")
)

// NormalizeFormat maps user input ("PNG", "jpg") to FormatPNG or
// FormatJPEG.
func NormalizeFormat(f string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Extension is the file extension (without dot) for a normalized format.
func Extension(format string) string {
	if format == FormatJPEG {
		return "jpeg"
	}
	return "png"
}

// MIMEType is the content type for a normalized format.
func MIMEType(format string) string {
	if format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode writes img as format. quality in [0,1] applies to JPEG only and
// is validated for both so callers get the same contract either way.
func Encode(w io.Writer, img image.Image, format string, quality float64) error {
	if math.IsNaN(quality) || quality < 0 || quality > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidQuality, quality)
	}
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	switch format {
	case FormatJPEG:
		q := int(math.Round(quality * 100))
		if q < 1 {
			q = 1
		}
		// JPEG has no alpha; composite over white unless already opaque.
		if !Opaque(img) {
			img = Flatten(img, color.White)
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	default:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	}
}

// Flatten composites img over an opaque background color and returns an
// opaque RGBA image.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// Opaque reports whether every pixel of img is fully opaque. It walks
// *image.RGBA and *image.NRGBA by stride and falls back to At otherwise.
func Opaque(img image.Image) bool {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.RGBA:
		return opaquePix(m.Pix, m.Stride, b.Dx(), b.Dy())
	case *image.NRGBA:
		return opaquePix(m.Pix, m.Stride, b.Dx(), b.Dy())
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

func opaquePix(pix []byte, stride, w, h int) bool {
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 0xff {
				return false
			}
		}
	}
	return true
}
