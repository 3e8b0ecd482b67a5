package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anatolykoptev/go_streamx/internal/engine"
	"github.com/anatolykoptev/go_streamx/internal/player"
	"github.com/anatolykoptev/go_streamx/internal/toolutil"
	"github.com/anatolykoptev/go_streamx/internal/ui"
)

type stateView struct {
	State      string               `json:"state"`
	Query      string               `json:"query"`
	Category   string               `json:"category"`
	Platform   engine.Platform      `json:"platform"`
	Results    []engine.VideoRecord `json:"results"`
	Message    string               `json:"message,omitempty"`
	Notice     string               `json:"notice,omitempty"`
	Categories []string             `json:"categories"`
	Session    ui.Session           `json:"session"`
	Premium    bool                 `json:"premium"`
	Player     playerView           `json:"player"`
}

type playerView struct {
	Mode       string              `json:"mode"`
	Background bool                `json:"background"`
	Video      *engine.VideoRecord `json:"video,omitempty"`
	EmbedURL   string              `json:"embedUrl,omitempty"`
}

type linkView struct {
	ID       string          `json:"id"`
	URL      string          `json:"url"`
	Platform engine.Platform `json:"platform"`
}

func newStateView(snap ui.Snapshot, ov player.OverlayState) stateView {
	return stateView{
		State:      snap.State.String(),
		Query:      snap.Query,
		Category:   snap.Category,
		Platform:   snap.Platform,
		Results:    snap.Results,
		Message:    snap.Message,
		Notice:     snap.Notice,
		Categories: snap.Categories,
		Session:    snap.Session,
		Premium:    snap.Premium,
		Player: playerView{
			Mode:       ov.Mode.String(),
			Background: ov.Background,
			Video:      ov.Video,
			EmbedURL:   ov.EmbedURL,
		},
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v := s.visitorFor(w, r)
	writeJSON(w, http.StatusOK, newStateView(v.ctrl.Snapshot(), v.overlay.State()))
}

// handleVideos is a stateless search: it does not touch the visitor's grid.
func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := toolutil.NormQuery(q.Get("q"))
	platform := toolutil.NormPlatform(q.Get("platform"))

	records, err := s.fetcher.Search(r.Context(), query, platform)
	if err != nil {
		if engine.IsBusy(err) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": ui.MsgServerBusy})
			return
		}
		slog.Warn("web: video search failed", slog.String("query", query), slog.Any("error", err))
		records = nil
	}
	writeJSON(w, http.StatusOK, toolutil.SearchOutput(query, platform, records))
}

// handleLinkBegin registers a sign-in popup; the page opens the returned URL.
func (s *Server) handleLinkBegin(w http.ResponseWriter, r *http.Request) {
	v := s.visitorFor(w, r)
	platform := engine.ParsePlatform(r.FormValue("platform"))

	ctx, cancel := context.WithTimeout(context.Background(), linkTimeout)
	p := &pendingLink{
		window: s.linker.Begin(v.id, platform),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.links.Store(p.window.ID, p)

	// A new popup replaces any earlier one the visitor left open.
	s.mu.Lock()
	prev := v.link
	v.link = p
	s.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
	go s.awaitLink(ctx, v, p)

	writeJSON(w, http.StatusOK, linkView{ID: p.window.ID, URL: p.window.URL, Platform: platform})
}

// ownedLink finds the pending link named in the path if it belongs to v,
// answering 404 otherwise.
func (s *Server) ownedLink(w http.ResponseWriter, r *http.Request, v *visitor) (*pendingLink, bool) {
	val, ok := s.links.Load(r.PathValue("id"))
	if !ok || val.(*pendingLink).window.Owner != v.id {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown link"})
		return nil, false
	}
	return val.(*pendingLink), true
}

// handleLinkClosed reports that the popup closed and waits for the link to complete.
func (s *Server) handleLinkClosed(w http.ResponseWriter, r *http.Request) {
	v := s.visitorFor(w, r)
	p, ok := s.ownedLink(w, r, v)
	if !ok {
		return
	}

	p.window.Close()
	select {
	case <-p.done:
	case <-r.Context().Done():
		return
	}

	if p.err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(p.err, context.DeadlineExceeded):
			status = http.StatusRequestTimeout
		case errors.Is(p.err, context.Canceled):
			status = http.StatusGone
		}
		writeJSON(w, status, map[string]string{"error": p.err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, newStateView(p.snap, v.overlay.State()))
}

// handleLinkCancel abandons a link whose popup never opened.
func (s *Server) handleLinkCancel(w http.ResponseWriter, r *http.Request) {
	v := s.visitorFor(w, r)
	p, ok := s.ownedLink(w, r, v)
	if !ok {
		return
	}
	p.cancel()
	select {
	case <-p.done:
	case <-r.Context().Done():
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("web: encode response", slog.Any("error", err))
	}
}
