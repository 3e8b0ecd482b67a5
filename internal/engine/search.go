package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TrendingCategory is the category label that maps to the recommended listing.
const TrendingCategory = "Trending"

// Adapter fetches normalized records for a query. Adapters never fail;
// problems degrade to an empty slice.
type Adapter func(ctx context.Context, query string) []VideoRecord

// Searcher routes queries to the bulk-listing or grounded adapter.
type Searcher struct {
	Bulk     Adapter // secondary platform
	Grounded Adapter // primary platform
	Rewrite  bool    // rewrite free-text bulk queries via the LLM client
}

// NewSearcher creates a Searcher. Rewrite follows Config.RewriteQueries.
func NewSearcher(bulk, grounded Adapter) *Searcher {
	return &Searcher{Bulk: bulk, Grounded: grounded, Rewrite: cfg.RewriteQueries}
}

// Search routes to one adapter; both sources are never merged.
// An empty query or the Trending label yields the recommended listing.
// The error is non-nil only for a cancelled context or a recovered adapter panic.
func (s *Searcher) Search(ctx context.Context, query string, platform Platform) ([]VideoRecord, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" || trimmed == TrendingCategory {
		return s.Recommended(ctx)
	}
	if platform == PlatformDailymotion && s.Rewrite {
		trimmed = RewriteQuery(ctx, trimmed)
	}
	return s.dispatch(ctx, trimmed, platform)
}

// Recommended is the trending listing from the primary platform.
func (s *Searcher) Recommended(ctx context.Context) ([]VideoRecord, error) {
	return s.dispatch(ctx, RecommendedQuery, PlatformYouTube)
}

// PersonalizedFeed runs the platform's fixed feed phrase. No user data is involved.
func (s *Searcher) PersonalizedFeed(ctx context.Context, platform Platform) ([]VideoRecord, error) {
	return s.dispatch(ctx, FeedPhrase(platform), platform)
}

func (s *Searcher) dispatch(ctx context.Context, query string, platform Platform) (records []VideoRecord, err error) {
	metrics.SearchRequests.Add(1)
	adapter := s.Grounded
	if platform == PlatformDailymotion {
		adapter = s.Bulk
	}
	if adapter == nil {
		return []VideoRecord{}, fmt.Errorf("search: no adapter for %s", platform)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("search: adapter panic", slog.String("platform", string(platform)), slog.Any("panic", r))
			records, err = []VideoRecord{}, fmt.Errorf("search %s: %v", platform, r)
		}
	}()

	err = TrackOperation(ctx, "search:"+string(platform), func(ctx context.Context) error {
		records = adapter(ctx, query)
		return nil
	})
	if records == nil {
		records = []VideoRecord{}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return records, ctxErr
	}
	return records, err
}

// IsBusy reports whether a search error carries the HTTP 429 marker that
// front-ends surface as "server busy". Other errors render as an empty grid.
func IsBusy(err error) bool {
	return err != nil && strings.Contains(err.Error(), "429")
}
