// Package web serves the StreamX front-end: the server-rendered grid page,
// its form actions, a small JSON API, the thumbnail proxy and metrics.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anatolykoptev/go_streamx/internal/adslot"
	"github.com/anatolykoptev/go_streamx/internal/engine"
	"github.com/anatolykoptev/go_streamx/internal/player"
	"github.com/anatolykoptev/go_streamx/internal/ui"
)

//go:embed templates/*.html
var templateFS embed.FS

// linkTimeout bounds how long a sign-in popup may stay open.
const linkTimeout = 10 * time.Minute

// Options configures a Server.
type Options struct {
	Fetcher    ui.Fetcher
	Prefs      *ui.Prefs
	Linker     *ui.Linker
	Ads        adslot.Config
	HTTPClient *http.Client // upstream client for the thumbnail proxy
	ThumbHosts []string     // allowed thumbnail host suffixes; nil = DefaultThumbHosts

	VisitorIdle time.Duration // drop visitors unseen this long; zero = DefaultVisitorIdle
	MaxVisitors int           // zero = DefaultMaxVisitors
}

// Visitor table limits. Evicted visitors are rebuilt from the preference
// store on their next request; only the player overlay is lost.
const (
	DefaultVisitorIdle = 30 * time.Minute
	DefaultMaxVisitors = 10000
)

// Server holds per-visitor state and the page template.
type Server struct {
	fetcher    ui.Fetcher
	prefs      *ui.Prefs
	linker     *ui.Linker
	ads        adslot.Config
	client     *http.Client
	thumbHosts []string
	tmpl       *template.Template

	idle        time.Duration
	maxVisitors int
	now         func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
	links    sync.Map // link id → *pendingLink
	stop     chan struct{}
	stopOnce sync.Once
}

// visitor is the in-memory state of one browser.
type visitor struct {
	id       string
	ctrl     *ui.Controller
	overlay  *player.Overlay
	lastSeen atomic.Int64 // unix nanos

	link *pendingLink // guarded by Server.mu; at most one per visitor
}

// pendingLink is a sign-in popup whose completion a request may wait on.
type pendingLink struct {
	window *ui.Window
	cancel context.CancelFunc
	done   chan struct{}
	snap   ui.Snapshot
	err    error
}

// New builds a Server. Fetcher and Prefs are required.
func New(o Options) *Server {
	if o.Linker == nil {
		o.Linker = ui.NewLinker(o.Prefs, 0)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if o.ThumbHosts == nil {
		o.ThumbHosts = DefaultThumbHosts
	}
	if o.VisitorIdle <= 0 {
		o.VisitorIdle = DefaultVisitorIdle
	}
	if o.MaxVisitors <= 0 {
		o.MaxVisitors = DefaultMaxVisitors
	}
	s := &Server{
		fetcher:     o.Fetcher,
		prefs:       o.Prefs,
		linker:      o.Linker,
		ads:         o.Ads,
		client:      thumbClient(o.HTTPClient, o.ThumbHosts),
		thumbHosts:  o.ThumbHosts,
		tmpl:        template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")),
		idle:        o.VisitorIdle,
		maxVisitors: o.MaxVisitors,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
		stop:        make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close stops the idle-visitor sweep and abandons pending sign-in links.
func (s *Server) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.visitors {
		if v.link != nil {
			v.link.cancel()
		}
	}
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /search", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.SubmitQuery(r.Context(), r.URL.Query().Get("q"))
	}))
	mux.HandleFunc("POST /category", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.SelectCategory(r.Context(), r.FormValue("name"))
	}))
	mux.HandleFunc("POST /platform", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.SwitchPlatform(r.Context(), engine.ParsePlatform(r.FormValue("platform")))
	}))
	mux.HandleFunc("POST /retry", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.Retry(r.Context())
	}))
	mux.HandleFunc("POST /dismiss", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.DismissError()
	}))
	mux.HandleFunc("GET /watch", s.handleWatch)

	mux.HandleFunc("POST /player/minimize", s.action(func(_ *http.Request, v *visitor) { v.overlay.Minimize() }))
	mux.HandleFunc("POST /player/restore", s.action(func(_ *http.Request, v *visitor) { v.overlay.Restore() }))
	mux.HandleFunc("POST /player/background", s.action(func(_ *http.Request, v *visitor) {
		if st, changed := v.overlay.EnableBackground(); changed {
			slog.Info("web: background play enabled", slog.String("visitor", v.id), slog.String("video", st.Video.Key()))
		}
	}))
	mux.HandleFunc("POST /player/close", s.action(func(_ *http.Request, v *visitor) { v.overlay.Close() }))

	mux.HandleFunc("POST /premium/purchase", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.Purchase(r.Context())
	}))
	mux.HandleFunc("POST /premium/toggle", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.TogglePremium(r.Context())
	}))
	mux.HandleFunc("POST /session/logout", s.action(func(r *http.Request, v *visitor) {
		v.ctrl.Logout(r.Context())
	}))

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/videos", s.handleVideos)
	mux.HandleFunc("POST /api/session/link", s.handleLinkBegin)
	mux.HandleFunc("POST /api/session/link/{id}/closed", s.handleLinkClosed)
	mux.HandleFunc("POST /api/session/link/{id}/cancel", s.handleLinkCancel)

	mux.HandleFunc("GET /thumb", s.handleThumb)
	mux.HandleFunc("GET /metrics", handleMetrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return logRequests(mux)
}

// action wraps a state-changing handler: it runs fn for the visitor and
// redirects back to the page.
func (s *Server) action(fn func(r *http.Request, v *visitor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.visitorFor(w, r)
		fn(r, v)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// awaitLink completes a sign-in popup in the background and switches the
// visitor to My Feed once the popup closes.
func (s *Server) awaitLink(ctx context.Context, v *visitor, p *pendingLink) {
	defer close(p.done)
	defer func() {
		p.cancel()
		s.links.Delete(p.window.ID)
		s.mu.Lock()
		if v.link == p {
			v.link = nil
		}
		s.mu.Unlock()
	}()

	session, err := s.linker.Await(ctx, p.window)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Debug("web: link abandoned", slog.String("visitor", v.id))
		} else {
			slog.Warn("web: link not completed", slog.String("visitor", v.id), slog.Any("error", err))
		}
		p.err = err
		return
	}
	p.snap = v.ctrl.Linked(ctx, session, p.window.Platform)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("web: request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)),
		)
	})
}
