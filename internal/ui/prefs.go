package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anatolykoptev/go_streamx/internal/engine"
	"github.com/anatolykoptev/go_streamx/internal/store"
)

// Storage keys for the persisted records.
const (
	KeySession = "streamx_user"
	KeyPremium = "streamx_premium"
)

// Session is the simulated account-link state of a visitor.
type Session struct {
	IsYouTubeLoggedIn     bool   `json:"isYouTubeLoggedIn"`
	IsDailymotionLoggedIn bool   `json:"isDailymotionLoggedIn"`
	Username              string `json:"username,omitempty"`
}

// AnyLoggedIn reports whether at least one platform is linked.
func (s Session) AnyLoggedIn() bool {
	return s.IsYouTubeLoggedIn || s.IsDailymotionLoggedIn
}

// LoggedIn reports whether platform p is linked.
func (s Session) LoggedIn(p engine.Platform) bool {
	if p == engine.PlatformDailymotion {
		return s.IsDailymotionLoggedIn
	}
	return s.IsYouTubeLoggedIn
}

// withLogin returns a copy of s with platform p marked as linked.
func (s Session) withLogin(p engine.Platform) Session {
	if p == engine.PlatformDailymotion {
		s.IsDailymotionLoggedIn = true
	} else {
		s.IsYouTubeLoggedIn = true
	}
	return s
}

// Prefs reads and writes the session and premium records of visitors.
type Prefs struct {
	store store.Store
}

func NewPrefs(s store.Store) *Prefs {
	return &Prefs{store: s}
}

// LoadSession returns the stored session, or the zero session when none exists.
func (p *Prefs) LoadSession(ctx context.Context, owner string) (Session, error) {
	raw, err := p.store.Get(ctx, owner, KeySession)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (p *Prefs) SaveSession(ctx context.Context, owner string, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.store.Put(ctx, owner, KeySession, string(data))
}

func (p *Prefs) ClearSession(ctx context.Context, owner string) error {
	return p.store.Delete(ctx, owner, KeySession)
}

// Premium reports the stored premium flag; only the string "true" counts.
func (p *Prefs) Premium(ctx context.Context, owner string) (bool, error) {
	raw, err := p.store.Get(ctx, owner, KeyPremium)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

func (p *Prefs) SetPremium(ctx context.Context, owner string, on bool) error {
	v := "false"
	if on {
		v = "true"
	}
	return p.store.Put(ctx, owner, KeyPremium, v)
}
