package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[{"id":"a"}]`, `[{"id":"a"}]`},
		{"json fence", "```json\n[{\"id\":\"a\"}]\n```", `[{"id":"a"}]`},
		{"bare fence", "```\n[]\n```", `[]`},
		{"whitespace", "  \n[]\n ", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestParseVideoArray(t *testing.T) {
	t.Run("valid array", func(t *testing.T) {
		got := ParseVideoArray(`[
			{"id":"jNQXAC9IVRw","title":"Me at the zoo","channelTitle":"jawed","viewCount":"300M","publishedAt":"2005-04-23","duration":"0:19"},
			{"id":"dQw4w9WgXcQ","title":"Never Gonna Give You Up","channelTitle":"Rick Astley","viewCount":"1.5B","publishedAt":"2009-10-25","duration":"PT3M33S"}
		]`)
		require.Len(t, got, 2)
		assert.Equal(t, "jNQXAC9IVRw", got[0].ID)
		assert.Equal(t, "jawed", got[0].ChannelTitle)
		assert.Equal(t, "300M", got[0].ViewCountDisplay)
		assert.Equal(t, "PT3M33S", got[1].DurationDisplay)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		got := ParseVideoArray("Here you go:\n[{\"id\":\"abc\",\"title\":\"t\"}]\nEnjoy")
		require.Len(t, got, 1)
		assert.Equal(t, "abc", got[0].ID)
	})

	for _, bad := range []string{"", "   ", "not json", `{"id":"x"}`, "[{"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			got := ParseVideoArray(bad)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestVideoListSchema(t *testing.T) {
	s := VideoListSchema()
	require.Equal(t, genai.TypeArray, s.Type)
	require.NotNil(t, s.Items)
	assert.Equal(t, genai.TypeObject, s.Items.Type)
	assert.ElementsMatch(t,
		[]string{"id", "title", "channelTitle", "viewCount", "publishedAt", "duration"},
		s.Items.Required)
	for _, name := range s.Items.Required {
		prop, ok := s.Items.Properties[name]
		require.True(t, ok, name)
		assert.Equal(t, genai.TypeString, prop.Type, name)
	}
	assert.Contains(t, s.Items.Properties["id"].Description, "jNQXAC9IVRw")
}

func TestGroundedPrompt(t *testing.T) {
	p := GroundedPrompt("lofi beats")
	assert.Contains(t, p, `"lofi beats"`)
	assert.Contains(t, p, "12")
	assert.Contains(t, p, "JSON array")
}

func TestRewriteQueryWithoutClient(t *testing.T) {
	old := cfg.LLMClient
	cfg.LLMClient = nil
	defer func() { cfg.LLMClient = old }()

	assert.Equal(t, "how do I bake bread", RewriteQuery(context.Background(), "how do I bake bread"))
}
