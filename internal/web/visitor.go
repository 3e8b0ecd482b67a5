package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_streamx/internal/player"
	"github.com/anatolykoptev/go_streamx/internal/ui"
)

// VisitorCookie holds the anonymous visitor id that keys persisted state.
const VisitorCookie = "streamx_vid"

const visitorCookieMaxAge = 365 * 24 * 60 * 60

// visitorFor returns the visitor of r, issuing a new id cookie when the
// request carries none or a malformed one.
func (s *Server) visitorFor(w http.ResponseWriter, r *http.Request) *visitor {
	id := ""
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     VisitorCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   visitorCookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s.visitor(r.Context(), id)
}

// visitor returns the registered visitor for id, restoring its persisted
// session and premium flag on first use. A full table makes room by
// dropping the least recently seen visitor.
func (s *Server) visitor(ctx context.Context, id string) *visitor {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.visitors[id]; ok {
		v.lastSeen.Store(now.UnixNano())
		return v
	}
	if len(s.visitors) >= s.maxVisitors {
		s.evictOldestLocked()
	}
	v := &visitor{
		id:      id,
		ctrl:    ui.NewController(ctx, id, s.fetcher, s.prefs),
		overlay: &player.Overlay{},
	}
	v.lastSeen.Store(now.UnixNano())
	s.visitors[id] = v
	return v
}

// evictIdle drops every visitor last seen before cutoff and returns how many went.
func (s *Server) evictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, v := range s.visitors {
		if v.lastSeen.Load() < cutoff.UnixNano() {
			s.dropLocked(id, v)
			n++
		}
	}
	return n
}

func (s *Server) evictOldestLocked() {
	var oldest *visitor
	for _, v := range s.visitors {
		if oldest == nil || v.lastSeen.Load() < oldest.lastSeen.Load() {
			oldest = v
		}
	}
	if oldest != nil {
		s.dropLocked(oldest.id, oldest)
	}
}

func (s *Server) dropLocked(id string, v *visitor) {
	if v.link != nil {
		v.link.cancel()
	}
	delete(s.visitors, id)
}

// visitorCount returns the number of visitors held in memory.
func (s *Server) visitorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// cleanupLoop periodically drops idle visitors.
func (s *Server) cleanupLoop() {
	interval := s.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.evictIdle(s.now().Add(-s.idle)); n > 0 {
				slog.Debug("web: evicted idle visitors", slog.Int("count", n))
			}
		}
	}
}
