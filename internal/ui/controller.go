// Package ui holds the per-visitor state machine driving the video grid:
// query, category, platform, results, session and premium flags.
package ui

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

// State is the grid lifecycle: Idle → Loading → {Success, Empty, Error}.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateEmpty
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	}
	return "idle"
}

// Category labels.
const (
	CategoryMyFeed   = "My Feed"
	CategoryTrending = engine.TrendingCategory
)

// User-facing messages.
const (
	MsgLimitReached = "Search limit reached. Please try again or switch to Dailymotion."
	MsgServerBusy   = "Server busy. Please wait a moment."
)

var baseCategories = []string{CategoryTrending, "Music", "Gaming", "Live", "News", "Shorts", "Learning"}

// Categories lists the category bar. My Feed is offered only to a visitor
// with at least one linked platform.
func Categories(s Session) []string {
	out := make([]string, 0, len(baseCategories)+1)
	if s.AnyLoggedIn() {
		out = append(out, CategoryMyFeed)
	}
	return append(out, baseCategories...)
}

// Fetcher is the search surface the controller consumes; *engine.Searcher implements it.
type Fetcher interface {
	Search(ctx context.Context, query string, platform engine.Platform) ([]engine.VideoRecord, error)
	Recommended(ctx context.Context) ([]engine.VideoRecord, error)
	PersonalizedFeed(ctx context.Context, platform engine.Platform) ([]engine.VideoRecord, error)
}

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	State      State
	Query      string
	Category   string
	Platform   engine.Platform
	Results    []engine.VideoRecord
	Message    string
	Notice     string
	Categories []string
	Session    Session
	Premium    bool
	Generation uint64
}

// Controller owns one visitor's UI state. Fetches run outside the lock;
// a completed fetch is applied only if no newer fetch has started since.
type Controller struct {
	fetcher Fetcher
	prefs   *Prefs
	owner   string

	mu       sync.Mutex
	state    State
	query    string
	category string
	platform engine.Platform
	results  []engine.VideoRecord
	message  string
	notice   string
	session  Session
	premium  bool
	gen      uint64
}

// NewController restores the visitor's persisted session and premium flags.
// The controller starts Idle on the Trending category and the primary platform.
func NewController(ctx context.Context, owner string, fetcher Fetcher, prefs *Prefs) *Controller {
	c := &Controller{
		fetcher:  fetcher,
		prefs:    prefs,
		owner:    owner,
		category: CategoryTrending,
		platform: engine.PlatformYouTube,
		results:  []engine.VideoRecord{},
	}
	if prefs != nil {
		if s, err := prefs.LoadSession(ctx, owner); err != nil {
			slog.Warn("ui: load session", slog.String("owner", owner), slog.Any("error", err))
		} else {
			c.session = s
		}
		if p, err := prefs.Premium(ctx, owner); err != nil {
			slog.Warn("ui: load premium", slog.String("owner", owner), slog.Any("error", err))
		} else {
			c.premium = p
		}
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	results := make([]engine.VideoRecord, len(c.results))
	copy(results, c.results)
	return Snapshot{
		State:      c.state,
		Query:      c.query,
		Category:   c.category,
		Platform:   c.platform,
		Results:    results,
		Message:    c.message,
		Notice:     c.notice,
		Categories: Categories(c.session),
		Session:    c.session,
		Premium:    c.premium,
		Generation: c.gen,
	}
}

// Load runs the initial fetch for the current category if nothing was fetched yet.
func (c *Controller) Load(ctx context.Context) Snapshot {
	c.mu.Lock()
	idle := c.state == StateIdle
	term := c.refetchTermLocked()
	c.mu.Unlock()
	if !idle {
		return c.Snapshot()
	}
	return c.perform(ctx, term)
}

// SubmitQuery searches for the typed query on the current platform.
func (c *Controller) SubmitQuery(ctx context.Context, query string) Snapshot {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()
	return c.perform(ctx, query)
}

// SelectCategory switches category, clears the query and re-fetches.
// My Feed is ignored while no platform is linked.
func (c *Controller) SelectCategory(ctx context.Context, category string) Snapshot {
	c.mu.Lock()
	if category == CategoryMyFeed && !c.session.AnyLoggedIn() {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}
	c.category = category
	c.query = ""
	term := c.refetchTermLocked()
	c.mu.Unlock()
	return c.perform(ctx, term)
}

// SwitchPlatform changes the source platform and re-fetches.
func (c *Controller) SwitchPlatform(ctx context.Context, p engine.Platform) Snapshot {
	c.mu.Lock()
	c.platform = p
	term := c.refetchTermLocked()
	c.mu.Unlock()
	return c.perform(ctx, term)
}

// Retry re-runs the current query, or the category when the query is empty.
func (c *Controller) Retry(ctx context.Context) Snapshot {
	c.mu.Lock()
	term := c.query
	if term == "" {
		term = c.category
	}
	c.mu.Unlock()
	return c.perform(ctx, term)
}

// DismissError clears the banner message.
func (c *Controller) DismissError() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = ""
	if c.state == StateError {
		c.state = StateEmpty
		if len(c.results) > 0 {
			c.state = StateSuccess
		}
	}
	return c.snapshotLocked()
}

// ClearNotice drops the pending toast once it has been shown.
func (c *Controller) ClearNotice() {
	c.mu.Lock()
	c.notice = ""
	c.mu.Unlock()
}

// Linked records a completed account link and switches to My Feed.
func (c *Controller) Linked(ctx context.Context, s Session, platform engine.Platform) Snapshot {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.SelectCategory(ctx, CategoryMyFeed)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = platform.DisplayName() + " linked successfully"
	return c.snapshotLocked()
}

// Logout clears both platform links. A visitor on My Feed falls back to Trending.
func (c *Controller) Logout(ctx context.Context) Snapshot {
	if c.prefs != nil {
		if err := c.prefs.ClearSession(ctx, c.owner); err != nil {
			slog.Warn("ui: clear session", slog.String("owner", c.owner), slog.Any("error", err))
		}
	}
	c.mu.Lock()
	c.session = Session{}
	onFeed := c.category == CategoryMyFeed
	c.mu.Unlock()
	if onFeed {
		c.SelectCategory(ctx, CategoryTrending)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = "Sessions Cleared"
	return c.snapshotLocked()
}

// Purchase turns premium on. No payment is involved.
func (c *Controller) Purchase(ctx context.Context) Snapshot {
	c.setPremium(ctx, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = "Premium Activated • Ads Removed"
	return c.snapshotLocked()
}

// TogglePremium flips the premium flag.
func (c *Controller) TogglePremium(ctx context.Context) Snapshot {
	c.mu.Lock()
	on := !c.premium
	c.mu.Unlock()
	c.setPremium(ctx, on)
	return c.Snapshot()
}

func (c *Controller) setPremium(ctx context.Context, on bool) {
	if c.prefs != nil {
		if err := c.prefs.SetPremium(ctx, c.owner, on); err != nil {
			slog.Warn("ui: save premium", slog.String("owner", c.owner), slog.Any("error", err))
		}
	}
	c.mu.Lock()
	c.premium = on
	c.mu.Unlock()
}

// refetchTermLocked is the term used after a category or platform change.
func (c *Controller) refetchTermLocked() string {
	if c.category == CategoryMyFeed {
		return CategoryMyFeed
	}
	if c.query != "" {
		return c.query
	}
	return c.category
}

// perform runs one fetch under a new generation and applies the outcome
// unless a newer fetch has started meanwhile.
func (c *Controller) perform(ctx context.Context, term string) Snapshot {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	platform := c.platform
	c.state = StateLoading
	c.results = []engine.VideoRecord{}
	c.message = ""
	c.notice = ""
	c.mu.Unlock()

	records, err := c.route(ctx, term, platform)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		slog.Debug("ui: discarding stale results", slog.Uint64("gen", gen), slog.Uint64("latest", c.gen))
		return c.snapshotLocked()
	}

	switch {
	case engine.IsBusy(err):
		c.state = StateError
		c.message = MsgServerBusy
	case err != nil:
		slog.Warn("ui: search failed", slog.String("term", term), slog.Any("error", err))
		c.state = StateEmpty
	case len(records) == 0:
		c.state = StateEmpty
		if platform == engine.PlatformYouTube {
			c.message = MsgLimitReached
		}
	default:
		c.state = StateSuccess
		c.results = records
	}
	return c.snapshotLocked()
}

func (c *Controller) route(ctx context.Context, term string, platform engine.Platform) ([]engine.VideoRecord, error) {
	trimmed := strings.TrimSpace(term)
	switch {
	case term == CategoryMyFeed:
		return c.fetcher.PersonalizedFeed(ctx, platform)
	case trimmed == "" || term == CategoryTrending:
		return c.fetcher.Recommended(ctx)
	default:
		return c.fetcher.Search(ctx, trimmed, platform)
	}
}
