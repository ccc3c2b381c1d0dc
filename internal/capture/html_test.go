package capture

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/render"
)

func sampleDoc() render.Document {
	return render.Document{
		Width:  375,
		Height: 667,
		Boxes:  []render.Box{{X: 20, Y: 100, W: 335, H: 48.5, Radius: 12, Fill: color.NRGBA{255, 255, 255, 181}}},
		Texts: []render.Text{
			{X: 20, Y: 26, Width: 335, Align: render.AlignCenter, Style: render.TextStyle{Face: render.FaceTitle, Size: 48, LineHeight: 1}, Color: color.NRGBA{0x1a, 0x1a, 0x1a, 255}, Content: "Wochenprogramm"},
			{X: 32, Y: 102, Style: render.TextStyle{Face: render.FaceRegular, Size: 10, LineHeight: 1.3}, Color: color.NRGBA{0, 0, 0, 255}, Content: "Tom & Jerry <3"},
		},
	}
}

func TestHTMLGeometry(t *testing.T) {
	page, err := HTML(sampleDoc(), render.NoBackground())
	require.NoError(t, err)
	s := string(page)

	assert.Contains(t, s, `data-ready="true"`)
	assert.Contains(t, s, "width:375px;height:667px;background:transparent")
	assert.Contains(t, s, "left:20px;top:100px;width:335px;height:48.5px;border-radius:12px;background:rgba(255,255,255,0.710)")
	assert.Contains(t, s, "font-size:48px;line-height:48px")
	assert.Contains(t, s, "width:335px;text-align:center")
	assert.Contains(t, s, "font-size:10px;line-height:13px")
}

func TestHTMLEscapesContent(t *testing.T) {
	page, err := HTML(sampleDoc(), render.NoBackground())
	require.NoError(t, err)
	assert.Contains(t, string(page), "Tom &amp; Jerry &lt;3")
	assert.NotContains(t, string(page), "<3")
}

func TestHTMLBackgrounds(t *testing.T) {
	bg, err := render.PresetBackground("gradient-ocean")
	require.NoError(t, err)
	page, err := HTML(sampleDoc(), bg)
	require.NoError(t, err)
	assert.Contains(t, string(page), "linear-gradient(to bottom, #0ea5e9, #0284c7)")

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	page, err = HTML(sampleDoc(), render.ImageBackground("upload", img))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(page), "url(data:image/png;base64,"))
	assert.Contains(t, string(page), "background-size:cover")
}

func TestRasterizeValidatesBeforeLaunching(t *testing.T) {
	r := NewChromiumRasterizer(0)

	_, err := r.Rasterize(context.Background(), sampleDoc(), render.NoBackground(), 0)
	assert.ErrorIs(t, err, render.ErrInvalidScale)

	_, err = r.Rasterize(context.Background(), render.Document{}, render.NoBackground(), 1)
	assert.ErrorIs(t, err, render.ErrEmptyLayout)
}

func TestPx(t *testing.T) {
	assert.Equal(t, "12", px(12))
	assert.Equal(t, "12.5", px(12.5))
	assert.Equal(t, "0.33", px(1.0/3))
}
