package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Rasterizer paints a laid-out document at an integer scale.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc Document, bg Background, scale int) (image.Image, error)
}

// NativeRasterizer draws documents in-process with the embedded fonts.
type NativeRasterizer struct {
	Fonts *FontSet
}

func NewNativeRasterizer(fonts *FontSet) *NativeRasterizer {
	return &NativeRasterizer{Fonts: fonts}
}

func (r *NativeRasterizer) Rasterize(ctx context.Context, doc Document, bg Background, scale int) (image.Image, error) {
	if r.Fonts == nil {
		return nil, errors.New("rasterize: no fonts")
	}
	if scale < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScale, scale)
	}
	w := int(math.Ceil(doc.Width)) * scale
	h := int(math.Ceil(doc.Height)) * scale
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyLayout
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	paintBackground(canvas, bg)

	s := float64(scale)
	for _, b := range doc.Boxes {
		fillRoundedRect(canvas, b.X*s, b.Y*s, b.W*s, b.H*s, b.Radius*s, b.Fill)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.Fonts.mu.Lock()
	defer r.Fonts.mu.Unlock()
	for _, t := range doc.Texts {
		face, err := r.Fonts.faceLocked(t.Style.Face, t.Style.Size*s)
		if err != nil {
			return nil, fmt.Errorf("rasterize text %q: %w", t.Content, err)
		}
		drawText(canvas, face, t, s)
	}
	return canvas, nil
}

func drawText(dst draw.Image, face font.Face, t Text, s float64) {
	x := t.X * s
	if t.Align == AlignCenter {
		adv := float64(font.MeasureString(face, t.Content)) / 64
		x += (t.Width*s - adv) / 2
	}
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	lineBox := t.Style.Line() * s
	baseline := t.Y*s + (lineBox-(ascent+descent))/2 + ascent

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(t.Color),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)},
	}
	d.DrawString(t.Content)
}

func paintBackground(dst *image.RGBA, bg Background) {
	b := dst.Bounds()
	switch bg.Kind {
	case BackgroundColor:
		draw.Draw(dst, b, image.NewUniform(bg.Color), image.Point{}, draw.Src)
	case BackgroundGradient:
		h := b.Dy()
		for y := 0; y < h; y++ {
			t := 0.5
			if h > 1 {
				t = float64(y) / float64(h-1)
			}
			row := image.Rect(b.Min.X, b.Min.Y+y, b.Max.X, b.Min.Y+y+1)
			draw.Draw(dst, row, image.NewUniform(lerp(bg.From, bg.To, t)), image.Point{}, draw.Src)
		}
	case BackgroundImage:
		if bg.Image != nil {
			xdraw.CatmullRom.Scale(dst, b, bg.Image, coverRect(bg.Image.Bounds(), b.Dx(), b.Dy()), draw.Src, nil)
		}
	}
}

// coverRect is the centered part of src with the aspect ratio of w x h,
// as CSS background-size: cover would show it.
func coverRect(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	target := float64(w) / float64(h)
	if sw/sh > target {
		cw := sh * target
		x0 := src.Min.X + int((sw-cw)/2)
		return image.Rect(x0, src.Min.Y, x0+int(math.Round(cw)), src.Max.Y)
	}
	ch := sw / target
	y0 := src.Min.Y + int((sh-ch)/2)
	return image.Rect(src.Min.X, y0, src.Max.X, y0+int(math.Round(ch)))
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t)) }
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

func fillRoundedRect(dst draw.Image, x, y, w, h, radius float64, c color.NRGBA) {
	rect := image.Rect(int(math.Floor(x)), int(math.Floor(y)), int(math.Ceil(x+w)), int(math.Ceil(y+h)))
	mask := &roundedMask{x: x, y: y, w: w, h: h, r: math.Min(radius, math.Min(w, h)/2)}
	draw.DrawMask(dst, rect, image.NewUniform(c), image.Point{}, mask, rect.Min, draw.Over)
}

// roundedMask is the coverage of a rounded rectangle in absolute pixel
// coordinates.
type roundedMask struct {
	x, y, w, h, r float64
}

func (m *roundedMask) ColorModel() color.Model { return color.AlphaModel }

func (m *roundedMask) Bounds() image.Rectangle {
	return image.Rect(int(math.Floor(m.x)), int(math.Floor(m.y)), int(math.Ceil(m.x+m.w)), int(math.Ceil(m.y+m.h)))
}

func (m *roundedMask) At(px, py int) color.Color {
	// pixel center
	cx, cy := float64(px)+0.5, float64(py)+0.5
	cov := clamp01(math.Min(cx-m.x+0.5, m.x+m.w-cx+0.5)) * clamp01(math.Min(cy-m.y+0.5, m.y+m.h-cy+0.5))

	// distance into a corner region
	dx := math.Max(m.x+m.r-cx, cx-(m.x+m.w-m.r))
	dy := math.Max(m.y+m.r-cy, cy-(m.y+m.h-m.r))
	if m.r > 0 && dx > 0 && dy > 0 {
		d := math.Hypot(dx, dy)
		cov = math.Min(cov, clamp01(m.r-d+0.5))
	}
	return color.Alpha{A: uint8(cov*255 + 0.5)}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
