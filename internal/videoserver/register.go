package videoserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_streamx/internal/engine"
	"github.com/anatolykoptev/go_streamx/internal/toolutil"
)

// Searcher is the search surface the tools call; *engine.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, query string, platform engine.Platform) ([]engine.VideoRecord, error)
	Recommended(ctx context.Context) ([]engine.VideoRecord, error)
	PersonalizedFeed(ctx context.Context, platform engine.Platform) ([]engine.VideoRecord, error)
}

// RegisterTools registers the video tools on the given MCP server:
// video_search, video_recommended, video_feed.
func RegisterTools(server *mcp.Server, s Searcher) {
	registerVideoSearch(server, s)
	registerVideoRecommended(server, s)
	registerVideoFeed(server, s)
}

func registerVideoSearch(server *mcp.Server, s Searcher) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_search",
		Description: "Search videos on YouTube (AI-grounded search, 12 results with source citations) or Dailymotion (public listing API, 15 results). Returns structured JSON with id, title, thumbnail, channel, views, publish date and duration. An empty query or \"Trending\" returns the trending listing.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.VideoSearchInput) (*mcp.CallToolResult, engine.VideoSearchOutput, error) {
		query := toolutil.NormQuery(input.Query)
		platform := toolutil.NormPlatform(input.Platform)

		records, err := s.Search(ctx, query, platform)
		if err != nil {
			slog.Warn("video_search: search failed", slog.String("query", query), slog.Any("error", err))
			return nil, engine.VideoSearchOutput{}, toolutil.ToolError("video_search", err)
		}
		slog.Info("video_search: done", slog.String("platform", string(platform)), slog.Int("count", len(records)))
		return nil, toolutil.SearchOutput(query, platform, records), nil
	})
}

func registerVideoRecommended(server *mcp.Server, s Searcher) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_recommended",
		Description: "List currently trending videos from YouTube via AI-grounded search.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ engine.VideoRecommendedInput) (*mcp.CallToolResult, engine.VideoSearchOutput, error) {
		records, err := s.Recommended(ctx)
		if err != nil {
			return nil, engine.VideoSearchOutput{}, toolutil.ToolError("video_recommended", err)
		}
		return nil, toolutil.SearchOutput(engine.RecommendedQuery, engine.PlatformYouTube, records), nil
	})
}

func registerVideoFeed(server *mcp.Server, s Searcher) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_feed",
		Description: "Curated feed for a platform (youtube or dailymotion). The feed is a fixed discovery query per platform; no account data is used.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.VideoFeedInput) (*mcp.CallToolResult, engine.VideoSearchOutput, error) {
		platform := toolutil.NormPlatform(input.Platform)
		records, err := s.PersonalizedFeed(ctx, platform)
		if err != nil {
			return nil, engine.VideoSearchOutput{}, toolutil.ToolError("video_feed", err)
		}
		return nil, toolutil.SearchOutput(engine.FeedPhrase(platform), platform, records), nil
	})
}
