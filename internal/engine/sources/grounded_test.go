package sources

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

type fakeBackend struct {
	resp  *engine.GroundedResponse
	err   error
	calls int
	last  engine.GroundedRequest
}

func (f *fakeBackend) Generate(_ context.Context, req engine.GroundedRequest) (*engine.GroundedResponse, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

func initGrounded(fb *fakeBackend) {
	engine.Init(engine.Config{
		Backend: func(context.Context) (engine.GroundedBackend, error) { return fb, nil },
		GroundedRetry: engine.RetryPolicy{
			Unit: time.Millisecond,
		},
	})
}

func TestFetchGroundedListing(t *testing.T) {
	fb := &fakeBackend{resp: &engine.GroundedResponse{
		Text: "```json\n" + `[
			{"id":"jNQXAC9IVRw","title":"Me at the zoo","channelTitle":"jawed","viewCount":"300M","publishedAt":"2005-04-23","duration":"PT19S"},
			{"id":"","title":"hallucinated","channelTitle":"x","viewCount":"1","publishedAt":"","duration":"1:00"},
			{"id":"dQw4w9WgXcQ","title":"Never Gonna Give You Up","channelTitle":"Rick Astley","viewCount":"1.5B","publishedAt":"","duration":"3:33"}
		]` + "\n```",
		References: []engine.GroundingReference{
			{Title: "youtube.com", URI: "https://www.youtube.com/watch?v=jNQXAC9IVRw"},
			{Title: "no locator"},
			{Title: "blank", URI: "  "},
		},
	}}
	initGrounded(fb)

	got := FetchGroundedListing(t.Context(), "first youtube video")
	require.Len(t, got, 2)
	assert.Equal(t, 1, fb.calls)
	assert.Contains(t, fb.last.Prompt, `"first youtube video"`)
	require.NotNil(t, fb.last.Schema)

	for _, v := range got {
		assert.Equal(t, engine.PlatformYouTube, v.SourcePlatform)
		assert.NotEmpty(t, v.ID)
		u, err := url.Parse(v.ThumbnailURL)
		require.NoError(t, err)
		assert.Equal(t, "i.ytimg.com", u.Host)
		assert.Equal(t, "/vi/"+v.ID+"/hqdefault.jpg", u.Path)

		require.Len(t, v.GroundingReferences, 1)
		assert.Equal(t, "https://www.youtube.com/watch?v=jNQXAC9IVRw", v.GroundingReferences[0].URI)
	}
	assert.Equal(t, "0:19", got[0].DurationDisplay)
	assert.Equal(t, "3:33", got[1].DurationDisplay)
	assert.Equal(t, engine.PublishedFallback, got[1].PublishedDisplay)
}

func TestFetchGroundedListingEmptyBody(t *testing.T) {
	for _, text := range []string{"", "I could not find videos.", "{}"} {
		fb := &fakeBackend{resp: &engine.GroundedResponse{Text: text}}
		initGrounded(fb)
		got := FetchGroundedListing(t.Context(), "q")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestFetchGroundedListingFailuresDegrade(t *testing.T) {
	t.Run("non-retryable", func(t *testing.T) {
		fb := &fakeBackend{err: errors.New("invalid argument")}
		initGrounded(fb)
		got := FetchGroundedListing(t.Context(), "q")
		assert.Empty(t, got)
		assert.Equal(t, 1, fb.calls)
	})

	t.Run("rate limit exhausted", func(t *testing.T) {
		fb := &fakeBackend{err: &engine.StatusError{Code: 429, Status: engine.StatusResourceExhausted}}
		initGrounded(fb)
		got := FetchGroundedListing(t.Context(), "q")
		assert.Empty(t, got)
		assert.Equal(t, 5, fb.calls)
	})

	t.Run("factory error", func(t *testing.T) {
		engine.Init(engine.Config{
			Backend: func(context.Context) (engine.GroundedBackend, error) { return nil, errors.New("no key") },
		})
		assert.Empty(t, FetchGroundedListing(t.Context(), "q"))
	})
}

func TestYouTubeThumbnail(t *testing.T) {
	assert.Equal(t, "https://i.ytimg.com/vi/jNQXAC9IVRw/hqdefault.jpg", YouTubeThumbnail("jNQXAC9IVRw"))
}
