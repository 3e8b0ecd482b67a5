package ui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

// Sign-in pages opened in the popup window.
const (
	YouTubeSignInURL     = "https://accounts.google.com/signin"
	DailymotionSignInURL = "https://www.dailymotion.com/signin"
)

// SignInURL returns the external sign-in page for a platform.
func SignInURL(p engine.Platform) string {
	if p == engine.PlatformDailymotion {
		return DailymotionSignInURL
	}
	return YouTubeSignInURL
}

// Window tracks one sign-in popup opened by the browser.
type Window struct {
	ID       string
	Owner    string
	Platform engine.Platform
	URL      string

	closed    chan struct{}
	closeOnce sync.Once
}

// Close records that the popup was closed. Safe to call more than once.
func (w *Window) Close() {
	w.closeOnce.Do(func() { close(w.closed) })
}

// Closed reports whether the popup has been closed.
func (w *Window) Closed() bool {
	select {
	case <-w.closed:
		return true
	default:
	}
	return false
}

// Linker runs the simulated account-link flow. Closing the popup counts as a
// successful sign-in: nothing verifies the user actually authenticated.
type Linker struct {
	prefs *Prefs
	poll  time.Duration

	mu      sync.Mutex
	windows map[string]*Window
}

// DefaultPollInterval matches the popup check interval of the page script.
const DefaultPollInterval = time.Second

// NewLinker creates a Linker that checks popups every poll; zero means DefaultPollInterval.
func NewLinker(prefs *Prefs, poll time.Duration) *Linker {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Linker{prefs: prefs, poll: poll, windows: make(map[string]*Window)}
}

// Begin registers a popup for owner and returns it; the caller opens w.URL.
func (l *Linker) Begin(owner string, p engine.Platform) *Window {
	w := &Window{
		ID:       uuid.NewString(),
		Owner:    owner,
		Platform: p,
		URL:      SignInURL(p),
		closed:   make(chan struct{}),
	}
	l.mu.Lock()
	l.windows[w.ID] = w
	l.mu.Unlock()
	return w
}

// Lookup finds a pending popup by id.
func (l *Linker) Lookup(id string) (*Window, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[id]
	return w, ok
}

// Await checks the popup every poll interval. Once it is closed the platform
// is marked logged in and the updated session is persisted and returned.
func (l *Linker) Await(ctx context.Context, w *Window) (Session, error) {
	defer l.forget(w.ID)

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return Session{}, ctx.Err()
		case <-ticker.C:
			if !w.Closed() {
				continue
			}
			return l.complete(ctx, w)
		}
	}
}

func (l *Linker) complete(ctx context.Context, w *Window) (Session, error) {
	var s Session
	if l.prefs != nil {
		loaded, err := l.prefs.LoadSession(ctx, w.Owner)
		if err != nil {
			slog.Warn("linker: load session", slog.Any("error", err))
		}
		s = loaded
	}
	s = s.withLogin(w.Platform)
	if l.prefs != nil {
		if err := l.prefs.SaveSession(ctx, w.Owner, s); err != nil {
			return s, err
		}
	}
	slog.Info("linker: platform linked", slog.String("owner", w.Owner), slog.String("platform", string(w.Platform)))
	return s, nil
}

func (l *Linker) forget(id string) {
	l.mu.Lock()
	delete(l.windows, id)
	l.mu.Unlock()
}
