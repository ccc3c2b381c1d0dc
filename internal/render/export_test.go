package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/convert"
)

func newNativeExporter(t *testing.T) *Exporter {
	t.Helper()
	fonts, err := NewFontSet()
	require.NoError(t, err)
	e := NewExporter(NewNativeRasterizer(fonts), fonts)
	e.now = func() time.Time { return time.Date(2024, 3, 6, 10, 0, 0, 0, time.Local) }
	return e
}

func TestExportPNGAtScale(t *testing.T) {
	e := newNativeExporter(t)
	bg, err := PresetBackground("gradient-blue")
	require.NoError(t, err)

	art, err := e.Export(context.Background(), sampleWeek(), nil, bg, Options{Format: "png", Scale: 2})
	require.NoError(t, err)

	assert.Equal(t, "Wochenplaner-2024-03-06.png", art.Filename)
	assert.Equal(t, "image/png", art.MIMEType)
	assert.Equal(t, DocWidth*2, art.Width)
	assert.GreaterOrEqual(t, art.Height, DocMinHeight*2)

	img, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.Equal(t, art.Width, img.Bounds().Dx())

	// top of the gradient is the first stop
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, color.RGBA{0x4f, 0x46, 0xe5, 0xff}, color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xff})
}

func TestExportJPEGWithVerse(t *testing.T) {
	e := newNativeExporter(t)
	bg, err := SolidBackground("#ffffff")
	require.NoError(t, err)

	art, err := e.Export(context.Background(), sampleWeek(), &Verse{Text: "Seid fröhlich in Hoffnung", Reference: "Römer 12,12"}, bg,
		Options{Format: "jpeg", Quality: 0.9, Scale: 1, Filename: "wochenplan-kw10"})
	require.NoError(t, err)

	assert.Equal(t, "wochenplan-kw10.jpeg", art.Filename)
	_, err = jpeg.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
}

func TestExportImageBackgroundCoverFit(t *testing.T) {
	e := newNativeExporter(t)
	src := image.NewRGBA(image.Rect(0, 0, 40, 10))
	for x := 0; x < 40; x++ {
		for y := 0; y < 10; y++ {
			src.Set(x, y, color.RGBA{0, 200, 0, 255})
		}
	}

	art, err := e.Export(context.Background(), sampleWeek(), nil, ImageBackground("upload", src), Options{Scale: 1})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.True(t, convert.Opaque(img))
}

func TestExportRejectsBadOptions(t *testing.T) {
	e := newNativeExporter(t)

	_, err := e.Export(context.Background(), sampleWeek(), nil, NoBackground(), Options{Scale: 4})
	assert.ErrorIs(t, err, ErrInvalidScale)

	_, err = e.Export(context.Background(), sampleWeek(), nil, NoBackground(), Options{Format: "jpeg", Quality: 90, Scale: 1})
	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, StepEncode, exportErr.Step)
	assert.ErrorIs(t, err, convert.ErrInvalidQuality)
}

type failingRasterizer struct{ err error }

func (f failingRasterizer) Rasterize(context.Context, Document, Background, int) (image.Image, error) {
	return nil, f.err
}

type emptyRasterizer struct{}

func (emptyRasterizer) Rasterize(context.Context, Document, Background, int) (image.Image, error) {
	return image.NewRGBA(image.Rectangle{}), nil
}

func TestExportReportsRasterizeStep(t *testing.T) {
	boom := errors.New("no display")
	e := NewExporter(failingRasterizer{boom}, monoMeasurer{})

	_, err := e.Export(context.Background(), sampleWeek(), nil, NoBackground(), Options{})
	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, StepRasterize, exportErr.Step)
	assert.ErrorIs(t, err, boom)

	e = NewExporter(emptyRasterizer{}, monoMeasurer{})
	_, err = e.Export(context.Background(), sampleWeek(), nil, NoBackground(), Options{})
	assert.ErrorIs(t, err, ErrEmptyLayout)
}

func TestExportLayoutStep(t *testing.T) {
	e := NewExporter(emptyRasterizer{}, nil)
	_, err := e.Export(context.Background(), sampleWeek(), nil, NoBackground(), Options{})
	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, StepLayout, exportErr.Step)
}

func TestCoverRect(t *testing.T) {
	// wide source, tall target: crop the sides
	r := coverRect(image.Rect(0, 0, 400, 100), 100, 100)
	assert.Equal(t, image.Rect(150, 0, 250, 100), r)

	// tall source, wide target: crop top and bottom
	r = coverRect(image.Rect(0, 0, 100, 400), 100, 50)
	assert.Equal(t, image.Rect(0, 175, 100, 225), r)
}
