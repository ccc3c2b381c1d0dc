// Package share hands an exported week to its destination: a file in an
// output directory, or a text-only link for a messenger.
package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"weekplan/internal/convert"
	appLog "weekplan/internal/log"
	"weekplan/internal/render"
)

var (
	ErrEmptyArtifact = errors.New("nothing to share: empty image")
	ErrUnknownTarget = errors.New("unknown share target")
)

// Target names a share destination.
type Target string

const (
	TargetDownload Target = "download"
	TargetFile     Target = "file"
	TargetWhatsApp Target = "whatsapp"
	TargetTelegram Target = "telegram"
)

// Payload is one exported week ready to hand off.
type Payload struct {
	Year     int
	Week     int
	Artifact render.Artifact
}

// Title is the text that accompanies a shared week.
func (p Payload) Title() string {
	return fmt.Sprintf("Mein Wochenplaner KW %d %d", p.Week, p.Year)
}

// ShareName is the filename used when the image is attached to a share.
func (p Payload) ShareName() string {
	return fmt.Sprintf("wochenplan-kw%d.%s", p.Week, p.ext())
}

// DownloadName is the filename used for downloads.
func (p Payload) DownloadName() string {
	return fmt.Sprintf("wochenplan-%d-kw%d.%s", p.Year, p.Week, p.ext())
}

func (p Payload) ext() string {
	return convert.Extension(p.Artifact.Format)
}

// Sharer delivers a payload.
type Sharer interface {
	Share(ctx context.Context, p Payload) error
}

// Downloader writes the image into Dir. With ShareNames set it uses the
// share filename instead of the download one.
type Downloader struct {
	Dir        string
	ShareNames bool

	// Saved is the path of the last written file.
	Saved string
}

func NewDownloader(dir string) *Downloader {
	return &Downloader{Dir: dir}
}

func (d *Downloader) Share(ctx context.Context, p Payload) error {
	if len(p.Artifact.Data) == 0 {
		return ErrEmptyArtifact
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	name := p.DownloadName()
	if d.ShareNames {
		name = p.ShareName()
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("share: create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, p.Artifact.Data); err != nil {
		return fmt.Errorf("share: write %s: %w", path, err)
	}
	d.Saved = path
	appLog.Info("week image saved", "path", path, "bytes", len(p.Artifact.Data), "title", p.Title())
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".weekplan-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// LinkSharer is the text-only fallback for messengers: it writes a share
// link carrying the title to Out. The image itself is not transferred.
type LinkSharer struct {
	Target  Target
	PageURL string
	Out     io.Writer
}

func (l *LinkSharer) Share(ctx context.Context, p Payload) error {
	link, err := LinkFor(l.Target, p.Title(), l.PageURL)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.Out, link)
	return err
}

// LinkFor builds the messenger link for text. pageURL is only used by
// Telegram.
func LinkFor(target Target, text, pageURL string) (string, error) {
	switch target {
	case TargetWhatsApp:
		return "https://wa.me/?text=" + encodeComponent(text), nil
	case TargetTelegram:
		return "https://t.me/share/url?url=" + encodeComponent(pageURL) + "&text=" + encodeComponent(text), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, target)
}

// encodeComponent escapes like JavaScript's encodeURIComponent: spaces
// become %20, not "+".
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ParseTarget accepts the target names used by the CLI and the API.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetDownload, TargetFile, TargetWhatsApp, TargetTelegram:
		return t, nil
	case "":
		return TargetDownload, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}
