package sources

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

// YouTube listings produced by the grounded generative backend.

const ytThumbnailBase = "https://i.ytimg.com/vi/"

// YouTubeThumbnail returns the conventional high-quality thumbnail URL for a video id.
func YouTubeThumbnail(id string) string {
	return ytThumbnailBase + url.PathEscape(id) + "/hqdefault.jpg"
}

// FetchGroundedListing asks the grounded backend for videos matching query.
// Retry exhaustion and every other failure are logged and yield an empty slice.
func FetchGroundedListing(ctx context.Context, query string) []engine.VideoRecord {
	req := engine.GroundedRequest{
		Prompt: engine.GroundedPrompt(query),
		Schema: engine.VideoListSchema(),
	}
	resp, err := engine.CallWithRetry(ctx, engine.Cfg.Backend, req, engine.Cfg.GroundedRetry)
	if err != nil {
		engine.IncrGroundedFailures()
		slog.Error("grounded: listing failed",
			slog.String("query", engine.TruncateRunes(query, 80, "...")),
			slog.Any("error", err),
		)
		return []engine.VideoRecord{}
	}
	return buildGrounded(resp)
}

func buildGrounded(resp *engine.GroundedResponse) []engine.VideoRecord {
	if resp == nil {
		return []engine.VideoRecord{}
	}
	refs := usableReferences(resp.References)
	parsed := engine.ParseVideoArray(resp.Text)

	out := make([]engine.VideoRecord, 0, len(parsed))
	for _, v := range parsed {
		if v.ID == "" {
			continue
		}
		v.Title = engine.CleanText(v.Title)
		v.ThumbnailURL = YouTubeThumbnail(v.ID)
		v.SourcePlatform = engine.PlatformYouTube
		v.DurationDisplay = engine.NormalizeDuration(v.DurationDisplay)
		if strings.TrimSpace(v.PublishedDisplay) == "" {
			v.PublishedDisplay = engine.PublishedFallback
		}
		v.GroundingReferences = refs
		out = append(out, v)
	}
	return out
}

// usableReferences keeps only references carrying a locator.
func usableReferences(in []engine.GroundingReference) []engine.GroundingReference {
	var out []engine.GroundingReference
	for _, r := range in {
		if strings.TrimSpace(r.URI) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
