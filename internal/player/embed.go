// Package player builds embed URLs and media-control messages for the
// overlay player, and tracks its window mode.
package player

import (
	"net/url"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

const (
	youtubeEmbedBase     = "https://www.youtube.com/embed/"
	dailymotionEmbedBase = "https://www.dailymotion.com/embed/video/"
)

// EmbedURL returns the autoplaying iframe URL for a record. YouTube embeds
// enable the JS API; Dailymotion embeds enable postMessage control.
func EmbedURL(v engine.VideoRecord) string {
	id := url.PathEscape(v.ID)
	if v.SourcePlatform == engine.PlatformDailymotion {
		return dailymotionEmbedBase + id + "?autoplay=1&mute=0&api=postMessage"
	}
	return youtubeEmbedBase + id + "?autoplay=1&mute=0&modestbranding=1&rel=0&enablejsapi=1"
}

// Command is a media-session action forwarded to the embedded player.
type Command string

const (
	CommandPlay  Command = "play"
	CommandPause Command = "pause"
	CommandStop  Command = "stop"
)

// ParseCommand maps an action name to a Command; ok is false for unknown names.
func ParseCommand(s string) (Command, bool) {
	switch c := Command(s); c {
	case CommandPlay, CommandPause, CommandStop:
		return c, true
	}
	return "", false
}

// Commands returns the postMessage payloads for cmd. Both the YouTube and the
// Dailymotion message are sent since the iframe ignores the one it does not
// understand. Stop closes the overlay instead and has no payload.
func Commands(cmd Command) []string {
	switch cmd {
	case CommandPlay:
		return []string{
			`{"event":"command","func":"playVideo","args":""}`,
			`{"method":"play"}`,
		}
	case CommandPause:
		return []string{
			`{"event":"command","func":"pauseVideo","args":""}`,
			`{"method":"pause"}`,
		}
	}
	return nil
}

// Artwork is one media-session artwork entry.
type Artwork struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// MediaMetadata mirrors the browser MediaMetadata init dictionary.
type MediaMetadata struct {
	Title   string    `json:"title"`
	Artist  string    `json:"artist"`
	Album   string    `json:"album"`
	Artwork []Artwork `json:"artwork"`
}

// Metadata describes the playing record to the OS media controls.
func Metadata(v engine.VideoRecord) MediaMetadata {
	return MediaMetadata{
		Title:   v.Title,
		Artist:  v.ChannelTitle,
		Album:   v.SourcePlatform.DisplayName(),
		Artwork: []Artwork{{Src: v.ThumbnailURL, Sizes: "512x512", Type: "image/png"}},
	}
}
