package player

import (
	"sync"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

// Mode is the overlay window mode.
type Mode int

const (
	ModeClosed Mode = iota
	ModeOpen
	ModeMinimized
)

func (m Mode) String() string {
	switch m {
	case ModeOpen:
		return "open"
	case ModeMinimized:
		return "minimized"
	}
	return "closed"
}

// OverlayState is a copy of the overlay at one point in time.
type OverlayState struct {
	Mode       Mode
	Background bool
	Video      *engine.VideoRecord
	EmbedURL   string
}

// Open reports whether a video is showing.
func (s OverlayState) Open() bool { return s.Mode != ModeClosed }

// Overlay tracks the player window of one visitor. Background play is a flag
// on top of the mode: once enabled it stays on until the overlay closes, and
// a minimized overlay in background mode cannot be restored by a click.
type Overlay struct {
	mu         sync.Mutex
	mode       Mode
	background bool
	video      engine.VideoRecord
}

// Play opens the overlay on v, replacing whatever was playing.
func (o *Overlay) Play(v engine.VideoRecord) OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.video = v
	o.mode = ModeOpen
	o.background = false
	return o.stateLocked()
}

// Minimize shrinks an open overlay to the corner.
func (o *Overlay) Minimize() OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == ModeOpen {
		o.mode = ModeMinimized
	}
	return o.stateLocked()
}

// Restore expands a minimized overlay unless background play is active.
func (o *Overlay) Restore() OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == ModeMinimized && !o.background {
		o.mode = ModeOpen
	}
	return o.stateLocked()
}

// EnableBackground turns on background play from the open overlay. Repeated
// calls and calls while minimized are no-ops; changed reports whether this
// call switched it on.
func (o *Overlay) EnableBackground() (s OverlayState, changed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == ModeOpen && !o.background {
		o.background = true
		changed = true
	}
	return o.stateLocked(), changed
}

// Close stops playback and resets every flag.
func (o *Overlay) Close() OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mode = ModeClosed
	o.background = false
	o.video = engine.VideoRecord{}
	return o.stateLocked()
}

// State returns the current overlay state.
func (o *Overlay) State() OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Overlay) stateLocked() OverlayState {
	s := OverlayState{Mode: o.mode, Background: o.background}
	if o.mode != ModeClosed {
		v := o.video
		s.Video = &v
		s.EmbedURL = EmbedURL(v)
	}
	return s
}
