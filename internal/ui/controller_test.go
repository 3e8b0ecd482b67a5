package ui

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_streamx/internal/engine"
	"github.com/anatolykoptev/go_streamx/internal/store"
)

type call struct {
	kind     string // search | recommended | feed
	query    string
	platform engine.Platform
}

// stubFetcher records calls and returns canned results.
type stubFetcher struct {
	mu      sync.Mutex
	calls   []call
	records []engine.VideoRecord
	err     error
	// gate, when set, blocks a search for the given query until closed.
	gate map[string]chan struct{}
}

func (s *stubFetcher) record(c call) ([]engine.VideoRecord, error) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	g := s.gate[c.query]
	recs, err := s.records, s.err
	s.mu.Unlock()
	if g != nil {
		<-g
	}
	return recs, err
}

func (s *stubFetcher) Search(_ context.Context, q string, p engine.Platform) ([]engine.VideoRecord, error) {
	recs, err := s.record(call{"search", q, p})
	if err == nil && len(recs) > 0 {
		recs = []engine.VideoRecord{{ID: q, SourcePlatform: p}}
	}
	return recs, err
}

func (s *stubFetcher) Recommended(context.Context) ([]engine.VideoRecord, error) {
	return s.record(call{"recommended", "", engine.PlatformYouTube})
}

func (s *stubFetcher) PersonalizedFeed(_ context.Context, p engine.Platform) ([]engine.VideoRecord, error) {
	return s.record(call{"feed", "", p})
}

func (s *stubFetcher) last() call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func someRecords() []engine.VideoRecord {
	return []engine.VideoRecord{{ID: "abc", SourcePlatform: engine.PlatformYouTube}}
}

func newTestController(f Fetcher) (*Controller, *Prefs) {
	prefs := NewPrefs(store.NewMemory())
	return NewController(context.Background(), "visitor-1", f, prefs), prefs
}

func TestCategoriesMyFeedRequiresLogin(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{"logged out", Session{}, false},
		{"youtube only", Session{IsYouTubeLoggedIn: true}, true},
		{"dailymotion only", Session{IsDailymotionLoggedIn: true}, true},
		{"both", Session{IsYouTubeLoggedIn: true, IsDailymotionLoggedIn: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats := Categories(tt.session)
			assert.Equal(t, tt.want, slices.Contains(cats, CategoryMyFeed))
			if tt.want {
				assert.Equal(t, CategoryMyFeed, cats[0])
			}
			assert.Contains(t, cats, "Trending")
			assert.Contains(t, cats, "Learning")
		})
	}
}

func TestSelectMyFeedWhileLoggedOut(t *testing.T) {
	f := &stubFetcher{records: someRecords()}
	c, _ := newTestController(f)

	snap := c.SelectCategory(context.Background(), CategoryMyFeed)
	assert.NotContains(t, snap.Categories, CategoryMyFeed)
	assert.Equal(t, CategoryTrending, snap.Category)
	assert.Empty(t, f.calls)
}

func TestRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query goes to recommended", func(t *testing.T) {
		f := &stubFetcher{records: someRecords()}
		c, _ := newTestController(f)
		c.SubmitQuery(ctx, "   ")
		assert.Equal(t, "recommended", f.last().kind)
	})

	t.Run("Trending goes to recommended", func(t *testing.T) {
		f := &stubFetcher{records: someRecords()}
		c, _ := newTestController(f)
		c.SelectCategory(ctx, "Trending")
		assert.Equal(t, "recommended", f.last().kind)
	})

	t.Run("text goes to search trimmed", func(t *testing.T) {
		f := &stubFetcher{records: someRecords()}
		c, _ := newTestController(f)
		c.SwitchPlatform(ctx, engine.PlatformDailymotion)
		c.SubmitQuery(ctx, "  jazz ")
		assert.Equal(t, call{"search", "jazz", engine.PlatformDailymotion}, f.last())
	})

	t.Run("category other than trending searches its label", func(t *testing.T) {
		f := &stubFetcher{records: someRecords()}
		c, _ := newTestController(f)
		snap := c.SelectCategory(ctx, "Gaming")
		assert.Equal(t, call{"search", "Gaming", engine.PlatformYouTube}, f.last())
		assert.Empty(t, snap.Query)
	})

	t.Run("My Feed goes to personalized feed", func(t *testing.T) {
		f := &stubFetcher{records: someRecords()}
		c, prefs := newTestController(f)
		require.NoError(t, prefs.SaveSession(ctx, "visitor-1", Session{IsDailymotionLoggedIn: true}))
		c = NewController(ctx, "visitor-1", f, prefs)
		c.SwitchPlatform(ctx, engine.PlatformDailymotion)
		c.SelectCategory(ctx, CategoryMyFeed)
		assert.Equal(t, call{"feed", "", engine.PlatformDailymotion}, f.last())
	})

	t.Run("platform switch keeps query", func(t *testing.T) {
		f := &stubFetcher{records: someRecords()}
		c, _ := newTestController(f)
		c.SubmitQuery(ctx, "cats")
		c.SwitchPlatform(ctx, engine.PlatformDailymotion)
		assert.Equal(t, call{"search", "cats", engine.PlatformDailymotion}, f.last())
	})

	t.Run("retry uses category when query empty", func(t *testing.T) {
		f := &stubFetcher{records: someRecords()}
		c, _ := newTestController(f)
		c.SelectCategory(ctx, "News")
		c.Retry(ctx)
		assert.Equal(t, call{"search", "News", engine.PlatformYouTube}, f.last())
	})
}

func TestOutcomeStates(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		c, _ := newTestController(&stubFetcher{records: someRecords()})
		snap := c.Load(ctx)
		assert.Equal(t, StateSuccess, snap.State)
		assert.Len(t, snap.Results, 1)
		assert.Empty(t, snap.Message)
	})

	t.Run("empty on primary shows limit message", func(t *testing.T) {
		c, _ := newTestController(&stubFetcher{records: []engine.VideoRecord{}})
		snap := c.Load(ctx)
		assert.Equal(t, StateEmpty, snap.State)
		assert.Equal(t, MsgLimitReached, snap.Message)
	})

	t.Run("empty on secondary is silent", func(t *testing.T) {
		c, _ := newTestController(&stubFetcher{records: []engine.VideoRecord{}})
		snap := c.SwitchPlatform(ctx, engine.PlatformDailymotion)
		assert.Equal(t, StateEmpty, snap.State)
		assert.Empty(t, snap.Message)
	})

	t.Run("429 error shows busy banner", func(t *testing.T) {
		c, _ := newTestController(&stubFetcher{err: errors.New("search youtube: Error 429 RESOURCE_EXHAUSTED")})
		snap := c.SubmitQuery(ctx, "cats")
		assert.Equal(t, StateError, snap.State)
		assert.Equal(t, MsgServerBusy, snap.Message)
		assert.Empty(t, snap.Results)

		snap = c.DismissError()
		assert.Empty(t, snap.Message)
		assert.Equal(t, StateEmpty, snap.State)
	})

	t.Run("other errors are silent", func(t *testing.T) {
		c, _ := newTestController(&stubFetcher{err: errors.New("boom")})
		snap := c.SubmitQuery(ctx, "cats")
		assert.Equal(t, StateEmpty, snap.State)
		assert.Empty(t, snap.Message)
	})
}

func TestStaleResultsDiscarded(t *testing.T) {
	ctx := context.Background()
	slow := make(chan struct{})
	f := &stubFetcher{records: someRecords(), gate: map[string]chan struct{}{"slow": slow}}
	c, _ := newTestController(f)

	done := make(chan Snapshot)
	go func() { done <- c.SubmitQuery(ctx, "slow") }()

	// Wait until the slow fetch is in flight.
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) == 1
	}, time.Second, time.Millisecond)

	fast := c.SubmitQuery(ctx, "fast")
	require.Equal(t, StateSuccess, fast.State)
	require.Equal(t, "fast", fast.Results[0].ID)

	close(slow)
	<-done

	final := c.Snapshot()
	assert.Equal(t, "fast", final.Results[0].ID)
	assert.Equal(t, "fast", final.Query)
}

func TestSnapshotIsImmutable(t *testing.T) {
	c, _ := newTestController(&stubFetcher{records: someRecords()})
	snap := c.Load(context.Background())
	snap.Results[0].ID = "mutated"
	assert.Equal(t, "abc", c.Snapshot().Results[0].ID)
}

func TestPremiumPersists(t *testing.T) {
	ctx := context.Background()
	c, prefs := newTestController(&stubFetcher{})

	snap := c.Purchase(ctx)
	assert.True(t, snap.Premium)
	assert.NotEmpty(t, snap.Notice)

	reloaded := NewController(ctx, "visitor-1", &stubFetcher{}, prefs)
	assert.True(t, reloaded.Snapshot().Premium)

	snap = reloaded.TogglePremium(ctx)
	assert.False(t, snap.Premium)
	on, err := prefs.Premium(ctx, "visitor-1")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestLinkedSwitchesToMyFeedAndLogout(t *testing.T) {
	ctx := context.Background()
	f := &stubFetcher{records: someRecords()}
	c, prefs := newTestController(f)

	snap := c.Linked(ctx, Session{IsYouTubeLoggedIn: true}, engine.PlatformYouTube)
	assert.Equal(t, CategoryMyFeed, snap.Category)
	assert.Contains(t, snap.Categories, CategoryMyFeed)
	assert.Equal(t, "YouTube linked successfully", snap.Notice)
	assert.Equal(t, "feed", f.last().kind)

	snap = c.Logout(ctx)
	assert.Equal(t, CategoryTrending, snap.Category)
	assert.NotContains(t, snap.Categories, CategoryMyFeed)
	assert.Equal(t, "Sessions Cleared", snap.Notice)
	s, err := prefs.LoadSession(ctx, "visitor-1")
	require.NoError(t, err)
	assert.False(t, s.AnyLoggedIn())
}
