package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"weekplan/internal/convert"
	appLog "weekplan/internal/log"
)

var ErrInvalidScale = errors.New("scale must be 1, 2 or 3")

// Export steps reported in ExportError.
const (
	StepLayout    = "layout"
	StepRasterize = "rasterize"
	StepEncode    = "encode"
)

// ExportError names the step of the export pipeline that failed.
type ExportError struct {
	Step string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed at %s: %v", e.Step, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Options controls one export.
type Options struct {
	Format  string  // png | jpeg
	Quality float64 // [0,1], JPEG only
	Scale   int     // 1..3, 0 means 2
	Locale  Locale
	// Filename without extension. Empty gives Wochenplaner-YYYY-MM-DD.
	Filename string
}

// Artifact is an encoded export image.
type Artifact struct {
	Data     []byte
	Format   string
	MIMEType string
	Filename string
	Width    int
	Height   int
}

// Exporter runs layout, rasterization and encoding.
type Exporter struct {
	Rasterizer Rasterizer
	Measurer   Measurer
	now        func() time.Time
}

func NewExporter(r Rasterizer, m Measurer) *Exporter {
	return &Exporter{Rasterizer: r, Measurer: m, now: time.Now}
}

// DefaultFilename is the export name used when none is given.
func DefaultFilename(now time.Time) string {
	return "Wochenplaner-" + now.Format("2006-01-02")
}

// Export renders week (plus verse, if any) on bg. Any failure is returned
// as an *ExportError; no partial image is produced.
func (e *Exporter) Export(ctx context.Context, week Week, verse *Verse, bg Background, opts Options) (Artifact, error) {
	if opts.Scale == 0 {
		opts.Scale = 2
	}
	if opts.Scale < 1 || opts.Scale > 3 {
		return Artifact{}, fmt.Errorf("%w: got %d", ErrInvalidScale, opts.Scale)
	}
	format, err := convert.NormalizeFormat(opts.Format)
	if err != nil {
		return Artifact{}, err
	}

	doc, err := Layout(week, verse, bg, opts.Locale, e.Measurer)
	if err != nil {
		return Artifact{}, &ExportError{Step: StepLayout, Err: err}
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return Artifact{}, &ExportError{Step: StepLayout, Err: ErrEmptyLayout}
	}

	img, err := e.Rasterizer.Rasterize(ctx, doc, bg, opts.Scale)
	if err != nil {
		return Artifact{}, &ExportError{Step: StepRasterize, Err: err}
	}
	b := img.Bounds()
	if b.Empty() {
		return Artifact{}, &ExportError{Step: StepRasterize, Err: ErrEmptyLayout}
	}

	var buf bytes.Buffer
	if err := convert.Encode(&buf, img, format, opts.Quality); err != nil {
		return Artifact{}, &ExportError{Step: StepEncode, Err: err}
	}

	name := opts.Filename
	if name == "" {
		name = DefaultFilename(e.now())
	}
	art := Artifact{
		Data:     buf.Bytes(),
		Format:   format,
		MIMEType: convert.MIMEType(format),
		Filename: name + "." + convert.Extension(format),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}
	appLog.Info("export rendered", "week", week.ISOWeek, "format", format, "scale", opts.Scale, "width", art.Width, "height", art.Height, "bytes", len(art.Data))
	return art, nil
}
