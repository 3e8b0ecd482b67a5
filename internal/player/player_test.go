package player

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name string
		v    engine.VideoRecord
		want string
	}{
		{
			name: "youtube",
			v:    engine.VideoRecord{ID: "jNQXAC9IVRw", SourcePlatform: engine.PlatformYouTube},
			want: "https://www.youtube.com/embed/jNQXAC9IVRw?autoplay=1&mute=0&modestbranding=1&rel=0&enablejsapi=1",
		},
		{
			name: "dailymotion",
			v:    engine.VideoRecord{ID: "x8abc12", SourcePlatform: engine.PlatformDailymotion},
			want: "https://www.dailymotion.com/embed/video/x8abc12?autoplay=1&mute=0&api=postMessage",
		},
		{
			name: "id is path-escaped",
			v:    engine.VideoRecord{ID: "a/b", SourcePlatform: engine.PlatformYouTube},
			want: "https://www.youtube.com/embed/a%2Fb?autoplay=1&mute=0&modestbranding=1&rel=0&enablejsapi=1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbedURL(tt.v))
		})
	}
}

func TestCommands(t *testing.T) {
	play := Commands(CommandPlay)
	require.Len(t, play, 2)
	assert.Equal(t, `{"event":"command","func":"playVideo","args":""}`, play[0])
	assert.Equal(t, `{"method":"play"}`, play[1])

	pause := Commands(CommandPause)
	require.Len(t, pause, 2)
	assert.Contains(t, pause[0], "pauseVideo")
	assert.Equal(t, `{"method":"pause"}`, pause[1])

	assert.Empty(t, Commands(CommandStop))

	for _, msgs := range [][]string{play, pause} {
		for _, m := range msgs {
			assert.True(t, json.Valid([]byte(m)), m)
		}
	}
}

func TestParseCommand(t *testing.T) {
	c, ok := ParseCommand("pause")
	assert.True(t, ok)
	assert.Equal(t, CommandPause, c)
	_, ok = ParseCommand("rewind")
	assert.False(t, ok)
}

func TestMetadata(t *testing.T) {
	m := Metadata(engine.VideoRecord{
		Title: "Song", ChannelTitle: "Band", ThumbnailURL: "https://x/t.jpg",
		SourcePlatform: engine.PlatformDailymotion,
	})
	assert.Equal(t, "Song", m.Title)
	assert.Equal(t, "Band", m.Artist)
	assert.Equal(t, "Dailymotion", m.Album)
	require.Len(t, m.Artwork, 1)
	assert.Equal(t, "512x512", m.Artwork[0].Sizes)
}

func TestOverlayModes(t *testing.T) {
	var o Overlay
	assert.False(t, o.State().Open())

	// Minimize on a closed overlay does nothing.
	assert.Equal(t, ModeClosed, o.Minimize().Mode)

	v := engine.VideoRecord{ID: "abc", SourcePlatform: engine.PlatformYouTube}
	s := o.Play(v)
	assert.Equal(t, ModeOpen, s.Mode)
	require.NotNil(t, s.Video)
	assert.Equal(t, "abc", s.Video.ID)
	assert.Equal(t, EmbedURL(v), s.EmbedURL)

	assert.Equal(t, ModeMinimized, o.Minimize().Mode)
	s, changed := o.EnableBackground()
	assert.False(t, changed, "background is only offered on the open overlay")
	assert.False(t, s.Background)
	assert.Equal(t, ModeOpen, o.Restore().Mode)

	s, changed = o.EnableBackground()
	assert.True(t, changed)
	assert.True(t, s.Background)
	s, changed = o.EnableBackground()
	assert.False(t, changed, "second enable is a no-op")
	assert.True(t, s.Background)

	// A minimized overlay in background mode stays minimized.
	o.Minimize()
	assert.Equal(t, ModeMinimized, o.Restore().Mode)

	s = o.Close()
	assert.Equal(t, ModeClosed, s.Mode)
	assert.False(t, s.Background)
	assert.Nil(t, s.Video)
	assert.Empty(t, s.EmbedURL)
}

func TestOverlayPlayResetsFlags(t *testing.T) {
	var o Overlay
	o.Play(engine.VideoRecord{ID: "one"})
	o.EnableBackground()
	o.Minimize()

	s := o.Play(engine.VideoRecord{ID: "two", SourcePlatform: engine.PlatformDailymotion})
	assert.Equal(t, ModeOpen, s.Mode)
	assert.False(t, s.Background)
	assert.Equal(t, "two", s.Video.ID)

	_, changed := (&Overlay{}).EnableBackground()
	assert.False(t, changed, "background needs an open overlay")
}
