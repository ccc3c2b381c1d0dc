package web

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"weekplan/internal/prefs"
	"weekplan/internal/render"
	"weekplan/internal/share"
	"weekplan/internal/verse"
)

// exportTimeout bounds one render, which may launch a browser.
const exportTimeout = 60 * time.Second

// handleExport renders a week and returns the image. Query parameters
// format, quality (1..100) and scale override the stored preferences.
//
// GET /api/weeks/{year}/{week}/export?format=jpeg&quality=80&scale=3
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, week, ok := weekParams(w, r)
	if !ok {
		return
	}
	var override *prefs.Settings
	q := r.URL.Query()
	if q.Has("format") || q.Has("quality") || q.Has("scale") {
		st := s.app.Prefs.Load()
		if q.Has("format") {
			st.Format = q.Get("format")
		}
		st.Quality = parseIntDefault(q.Get("quality"), st.Quality)
		st.Scale = parseIntDefault(q.Get("scale"), st.Scale)
		override = &st
	}

	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()
	art, err := s.app.ExportWeek(ctx, year, week, override)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+art.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

type shareRequest struct {
	Target  string `json:"target"`
	PageURL string `json:"pageUrl,omitempty"`
}

type shareResponse struct {
	Title    string `json:"title"`
	Link     string `json:"link,omitempty"`
	Path     string `json:"path,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// handleShare saves the week image into the output directory, or returns
// the messenger link for link targets.
//
// POST /api/weeks/{year}/{week}/share {"target":"whatsapp"}
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	year, week, ok := weekParams(w, r)
	if !ok {
		return
	}
	var in shareRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	target, err := share.ParseTarget(in.Target)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	switch target {
	case share.TargetWhatsApp, share.TargetTelegram:
		title := share.Payload{Year: year, Week: week}.Title()
		link, err := share.LinkFor(target, title, in.PageURL)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shareResponse{Title: title, Link: link})
		return
	}

	d := share.NewDownloader(s.cfg.Export.OutputDir)
	d.ShareNames = target == share.TargetFile
	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()
	p, err := s.app.ShareWeek(ctx, year, week, d)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Title: p.Title(), Path: d.Saved, Filename: filepath.Base(d.Saved)})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Prefs.Load())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	in := s.app.Prefs.Load()
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := s.app.Prefs.Save(in); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Prefs.Load())
}

func (s *Server) handleResetSettings(w http.ResponseWriter, _ *http.Request) {
	s.app.Prefs.Reset()
	writeJSON(w, http.StatusOK, s.app.Prefs.Load())
}

// handleUploadBackground stores the raw request body as the custom
// background and selects it.
func (s *Server) handleUploadBackground(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, prefs.MaxUploadBytes+1))
	if err != nil {
		writeDomainError(w, prefs.ErrUploadTooLarge)
		return
	}
	dataURL, err := prefs.EncodeUpload(data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	st := s.app.Prefs.Load()
	st.BackgroundType = prefs.BackgroundImage
	st.SelectedBackground = prefs.CustomBackground
	st.CustomBackground = dataURL
	if err := s.app.Prefs.Save(st); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type backgroundDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CSS  string `json:"css"`
}

func (s *Server) handleBackgrounds(w http.ResponseWriter, _ *http.Request) {
	out := make([]backgroundDTO, 0, len(render.Presets))
	for _, p := range render.Presets {
		out = append(out, backgroundDTO{ID: p.ID, Name: p.Name, CSS: p.CSS})
	}
	writeJSON(w, http.StatusOK, out)
}

type verseResponse struct {
	Enabled   bool   `json:"enabled"`
	Text      string `json:"text,omitempty"`
	Reference string `json:"reference,omitempty"`
}

func (s *Server) verseState() verseResponse {
	resp := verseResponse{Enabled: s.app.Verse.Enabled()}
	if resp.Enabled {
		v := s.app.Verse.Current()
		resp.Text, resp.Reference = v.Text, v.Reference
	}
	return resp
}

func (s *Server) handleVerse(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.verseState())
}

func (s *Server) handleSetVerse(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	s.app.Verse.SetEnabled(in.Enabled)
	writeJSON(w, http.StatusOK, s.verseState())
}

func (s *Server) handleRefreshVerse(w http.ResponseWriter, _ *http.Request) {
	v := s.app.Verse.Refresh()
	writeJSON(w, http.StatusOK, verseResponse{Enabled: s.app.Verse.Enabled(), Text: v.Text, Reference: v.Reference})
}

// handleVerses lists the verse collection, or with ?ref= looks one up by
// a case-insensitive part of its reference.
func (s *Server) handleVerses(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeJSON(w, http.StatusOK, verse.All())
		return
	}
	v, ok := verse.ByReference(ref)
	if !ok {
		writeError(w, http.StatusNotFound, "no verse matches "+strconv.Quote(ref))
		return
	}
	writeJSON(w, http.StatusOK, v)
}
