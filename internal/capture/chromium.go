// Package capture rasterizes export documents with headless Chromium. It
// is the alternative to render.NativeRasterizer when browser text shaping
// is wanted.
package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"time"

	"github.com/chromedp/chromedp"

	appLog "weekplan/internal/log"
	"weekplan/internal/render"
)

const DefaultTimeoutSec = 30

// ChromiumRasterizer renders a document as absolutely positioned HTML and
// screenshots it. It implements render.Rasterizer.
type ChromiumRasterizer struct {
	// Timeout bounds one capture. Zero means DefaultTimeoutSec.
	Timeout time.Duration

	// ExecAllocatorOptions, if set, start a dedicated browser instead of
	// the chromedp defaults (e.g. a custom Chrome path).
	ExecAllocatorOptions []chromedp.ExecAllocatorOption
}

func NewChromiumRasterizer(timeout time.Duration) *ChromiumRasterizer {
	return &ChromiumRasterizer{Timeout: timeout}
}

// Rasterize launches Chromium, loads the document and captures it at the
// given device scale factor.
func (r *ChromiumRasterizer) Rasterize(parentCtx context.Context, doc render.Document, bg render.Background, scale int) (image.Image, error) {
	if scale < 1 {
		return nil, fmt.Errorf("%w: %d", render.ErrInvalidScale, scale)
	}
	w := int64(math.Ceil(doc.Width))
	h := int64(math.Ceil(doc.Height))
	if w <= 0 || h <= 0 {
		return nil, render.ErrEmptyLayout
	}
	page, err := HTML(doc, bg)
	if err != nil {
		return nil, fmt.Errorf("capture: build page: %w", err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	allocCtx := parentCtx
	if len(r.ExecAllocatorOptions) > 0 {
		var cancelAlloc context.CancelFunc
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parentCtx, r.ExecAllocatorOptions...)
		defer cancelAlloc()
	}
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(w, h, chromedp.EmulateScale(float64(scale))),
		chromedp.Navigate("data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(page)),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// quality 100 makes chromedp capture PNG
		chromedp.FullScreenshot(&shot, 100),
	}
	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	appLog.Debug("chromium capture done", "width", w, "height", h, "scale", scale, "elapsed", time.Since(start).String())

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("capture: decode screenshot: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, errors.New("capture: empty screenshot")
	}
	return img, nil
}
