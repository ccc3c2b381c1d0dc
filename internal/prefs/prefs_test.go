package prefs

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/render"
	"weekplan/internal/storage"
	"weekplan/internal/storage/storagetest"
)

func TestLoadReturnsDefaults(t *testing.T) {
	s := NewStore(storagetest.New(t))
	assert.Equal(t, Defaults(), s.Load())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	kv := storagetest.New(t)
	require.NoError(t, kv.Put(storage.KeyExportSettings, []byte(`{"format":"jpeg","scale":3}`)))

	got := NewStore(kv).Load()
	assert.Equal(t, "jpeg", got.Format)
	assert.Equal(t, 3, got.Scale)
	assert.Equal(t, 90, got.Quality)
	assert.Equal(t, "#ffffff", got.BackgroundColor)
	assert.Equal(t, BackgroundNone, got.BackgroundType)
}

func TestLoadDegradesOnCorruptValue(t *testing.T) {
	kv := storagetest.New(t)
	storagetest.Corrupt(t, kv, storage.KeyExportSettings)
	assert.Equal(t, Defaults(), NewStore(kv).Load())

	assert.Equal(t, Defaults(), NewStore(storagetest.Broken{}).Load())
}

func TestSaveAndReset(t *testing.T) {
	s := NewStore(storagetest.New(t))

	want := Defaults()
	want.Format = "JPG"
	want.Quality = 75
	want.BackgroundType = BackgroundImage
	want.SelectedBackground = "gradient-sunset"
	require.NoError(t, s.Save(want))

	got := s.Load()
	assert.Equal(t, "jpeg", got.Format)
	assert.Equal(t, 75, got.Quality)
	assert.Equal(t, "gradient-sunset", got.SelectedBackground)

	s.Reset()
	assert.Equal(t, Defaults(), s.Load())
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := NewStore(storagetest.New(t))
	cases := map[string]func(*Settings){
		"format":  func(x *Settings) { x.Format = "gif" },
		"quality": func(x *Settings) { x.Quality = 0 },
		"scale":   func(x *Settings) { x.Scale = 4 },
		"color":   func(x *Settings) { x.BackgroundColor = "white" },
		"type":    func(x *Settings) { x.BackgroundType = "video" },
		"preset":  func(x *Settings) { x.BackgroundType = BackgroundImage; x.SelectedBackground = "nope" },
		"custom":  func(x *Settings) { x.BackgroundType = BackgroundImage; x.SelectedBackground = CustomBackground },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := Defaults()
			mutate(&in)
			assert.ErrorIs(t, s.Save(in), ErrInvalidSettings)
		})
	}
	assert.Equal(t, Defaults(), s.Load())
}

func TestResolve(t *testing.T) {
	bg, err := Defaults().Resolve()
	require.NoError(t, err)
	assert.Equal(t, render.BackgroundNone, bg.Kind)

	s := Defaults()
	s.BackgroundType = BackgroundColor
	s.BackgroundColor = "#FFFFFF"
	bg, err = s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, render.BackgroundColor, bg.Kind)
	assert.Equal(t, "light", render.SchemeFor(bg.Identity).Name)

	s.BackgroundType = BackgroundImage
	s.SelectedBackground = "elegant-beige"
	bg, err = s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, render.BackgroundGradient, bg.Kind)
	assert.Equal(t, "beige", render.SchemeFor(bg.Identity).Name)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCustomBackgroundRoundTrip(t *testing.T) {
	url, err := EncodeUpload(pngBytes(t, 8, 4))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	s := Defaults()
	s.BackgroundType = BackgroundImage
	s.SelectedBackground = CustomBackground
	s.CustomBackground = url
	require.NoError(t, s.Validate())

	bg, err := s.Resolve()
	require.NoError(t, err)
	require.Equal(t, render.BackgroundImage, bg.Kind)
	assert.Equal(t, image.Rect(0, 0, 8, 4), bg.Image.Bounds())
}

func TestEncodeUploadRejects(t *testing.T) {
	_, err := EncodeUpload([]byte("GIF89a not really"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = EncodeUpload(make([]byte, MaxUploadBytes+1))
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	_, err = DecodeDataURL("https://example.com/bg.png")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	s := Defaults()
	s.Format = "jpeg"
	s.Quality = 80
	o := s.Options(render.LocaleEN)
	assert.InDelta(t, 0.8, o.Quality, 1e-9)
	assert.Equal(t, 2, o.Scale)
	assert.Equal(t, render.LocaleEN, o.Locale)
}
