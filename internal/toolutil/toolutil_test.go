package toolutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

func TestNormPlatform(t *testing.T) {
	tests := []struct {
		in   string
		want engine.Platform
	}{
		{"", engine.PlatformYouTube},
		{"youtube", engine.PlatformYouTube},
		{" Dailymotion ", engine.PlatformDailymotion},
		{"vimeo", engine.PlatformYouTube},
	}
	for _, tt := range tests {
		if got := NormPlatform(tt.in); got != tt.want {
			t.Errorf("NormPlatform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearchOutputNeverNil(t *testing.T) {
	out := SearchOutput("q", engine.PlatformDailymotion, nil)
	if out.Videos == nil || out.Count != 0 {
		t.Errorf("SearchOutput(nil) = %+v", out)
	}
	out = SearchOutput("q", engine.PlatformYouTube, []engine.VideoRecord{{ID: "a"}, {ID: "b"}})
	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}
}

func TestToolError(t *testing.T) {
	base := errors.New("search youtube: Error 429")
	err := ToolError("video_search", base)
	if !errors.Is(err, base) {
		t.Error("ToolError must wrap the cause")
	}
	if !strings.Contains(err.Error(), "server busy") {
		t.Errorf("busy error not flagged: %v", err)
	}
	if err := ToolError("video_feed", errors.New("boom")); strings.Contains(err.Error(), "server busy") {
		t.Errorf("plain error flagged busy: %v", err)
	}
	if NormQuery("  cats ") != "cats" {
		t.Error("NormQuery did not trim")
	}
}
