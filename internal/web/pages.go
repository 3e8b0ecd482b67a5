package web

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_streamx/internal/adslot"
	"github.com/anatolykoptev/go_streamx/internal/engine"
	"github.com/anatolykoptev/go_streamx/internal/player"
	"github.com/anatolykoptev/go_streamx/internal/ui"
)

// pageData feeds templates/page.html.
type pageData struct {
	ui.Snapshot
	Player    player.OverlayState
	Platforms []engine.Platform
	AdBottom  template.HTML
	AdSocial  template.HTML
	Script    pageScript
}

// pageScript is handed to the inline script as JSON.
type pageScript struct {
	Play     []string              `json:"play"`
	Pause    []string              `json:"pause"`
	Metadata *player.MediaMetadata `json:"metadata,omitempty"`
}

var templateFuncs = template.FuncMap{
	"thumb": thumbPath,
	"upper": strings.ToUpper,
	"signin": func(p engine.Platform) string { return ui.SignInURL(p) },
}

// thumbPath routes an upstream image through the thumbnail proxy.
func thumbPath(raw string) string {
	if raw == "" {
		return ""
	}
	return "/thumb?url=" + url.QueryEscape(raw)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v := s.visitorFor(w, r)
	snap := v.ctrl.Load(r.Context())
	s.render(w, s.page(snap, v.overlay.State()))
	if snap.Notice != "" {
		v.ctrl.ClearNotice()
	}
}

// handleWatch opens the overlay on a record from the visitor's current grid.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	v := s.visitorFor(w, r)
	q := r.URL.Query()
	key := string(engine.ParsePlatform(q.Get("source"))) + "-" + q.Get("id")

	for _, rec := range v.ctrl.Snapshot().Results {
		if rec.Key() == key {
			v.overlay.Play(rec)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	http.Error(w, "video not in current results", http.StatusNotFound)
}

func (s *Server) page(snap ui.Snapshot, ov player.OverlayState) pageData {
	d := pageData{
		Snapshot:  snap,
		Player:    ov,
		Platforms: engine.Platforms,
		AdBottom:  template.HTML(adslot.Render(adslot.SlotBottom, s.ads.URL(adslot.SlotBottom), snap.Premium)),
		AdSocial:  template.HTML(adslot.Render(adslot.SlotSocial, s.ads.URL(adslot.SlotSocial), snap.Premium)),
		Script: pageScript{
			Play:  player.Commands(player.CommandPlay),
			Pause: player.Commands(player.CommandPause),
		},
	}
	if ov.Video != nil {
		md := player.Metadata(*ov.Video)
		d.Script.Metadata = &md
	}
	return d
}

func (s *Server) render(w http.ResponseWriter, d pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "page.html", d); err != nil {
		slog.Error("web: render page", slog.Any("error", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
