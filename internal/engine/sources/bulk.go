package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

// Dailymotion public listing API with a CORS-relay fallback.

const (
	bulkFields       = "id,title,thumbnail_480_url,owner.screenname,views_total,created_time,duration"
	bulkLimit        = 15
	bulkDefaultOwner = "Dailymotion Creator"
	bulkMaxBody      = 4 * 1024 * 1024
)

type bulkListing struct {
	List []bulkItem `json:"list"`
}

type bulkItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Thumbnail   string  `json:"thumbnail_480_url"`
	Owner       string  `json:"owner.screenname"`
	Views       float64 `json:"views_total"`
	CreatedTime int64   `json:"created_time"`
	Duration    float64 `json:"duration"`
}

// relayEnvelope is the relay's wrapped payload; Contents holds the original body.
type relayEnvelope struct {
	Contents string `json:"contents"`
}

// BulkListingURL builds the listing request URL for a query.
func BulkListingURL(query string) string {
	params := url.Values{}
	params.Set("fields", bulkFields)
	params.Set("search", query)
	params.Set("limit", fmt.Sprintf("%d", bulkLimit))
	return strings.TrimRight(engine.Cfg.BulkListingURL, "/") + "/videos?" + params.Encode()
}

// FetchBulkListing queries the listing API directly and falls back to the relay
// when the direct request fails. It never returns an error: failures are logged
// and degrade to an empty slice.
func FetchBulkListing(ctx context.Context, query string) []engine.VideoRecord {
	engine.IncrBulkRequests()
	target := BulkListingURL(query)

	body, err := bulkDirect(ctx, target)
	if err != nil && ctx.Err() != nil {
		slog.Debug("bulk: request cancelled", slog.Any("error", err))
		return []engine.VideoRecord{}
	}
	if err != nil {
		slog.Debug("bulk: direct request failed, using relay", slog.Any("error", err))
		engine.IncrRelayFallbacks()
		body, err = bulkViaRelay(ctx, target)
	}
	if err != nil {
		engine.IncrBulkFailures()
		slog.Error("bulk: listing failed", slog.String("query", engine.TruncateRunes(query, 80, "...")), slog.Any("error", err))
		return []engine.VideoRecord{}
	}

	var listing bulkListing
	if err := json.Unmarshal(body, &listing); err != nil {
		engine.IncrBulkFailures()
		slog.Error("bulk: decode listing", slog.Any("error", err))
		return []engine.VideoRecord{}
	}
	return normalizeBulk(listing.List, time.Local)
}

func normalizeBulk(items []bulkItem, loc *time.Location) []engine.VideoRecord {
	out := make([]engine.VideoRecord, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		owner := strings.TrimSpace(it.Owner)
		if owner == "" {
			owner = bulkDefaultOwner
		}
		thumb := it.Thumbnail
		if thumb == "" {
			thumb = "https://www.dailymotion.com/thumbnail/video/" + url.PathEscape(it.ID)
		}
		out = append(out, engine.VideoRecord{
			ID:               it.ID,
			Title:            engine.CleanText(it.Title),
			ThumbnailURL:     thumb,
			ChannelTitle:     owner,
			ViewCountDisplay: engine.FormatViews(int64(it.Views)),
			PublishedDisplay: engine.FormatPublished(it.CreatedTime, loc),
			DurationDisplay:  engine.FormatDuration(int(it.Duration)),
			SourcePlatform:   engine.PlatformDailymotion,
			Description:      "",
		})
	}
	return out
}

// bulkDirect issues the listing request, through the stealth browser client
// when one is configured.
func bulkDirect(ctx context.Context, target string) ([]byte, error) {
	if bc := engine.Cfg.BrowserClient; bc != nil {
		headers := engine.ChromeHeaders()
		headers["accept"] = "application/json"
		data, status, err := doWithContext(ctx, func() ([]byte, int, error) {
			data, _, status, err := bc.Do("GET", target, headers, nil)
			return data, status, err
		})
		if err != nil {
			return nil, err
		}
		if status < 200 || status >= 300 {
			return nil, fmt.Errorf("listing status %d", status)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)
	req.Header.Set("Accept", "application/json")
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("listing status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, bulkMaxBody))
}

// doWithContext returns when either do finishes or ctx ends. An abandoned
// stealth request runs on in the background until its own timeout.
func doWithContext(ctx context.Context, do func() ([]byte, int, error)) ([]byte, int, error) {
	type result struct {
		data   []byte
		status int
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		data, status, err := do()
		ch <- result{data, status, err}
	}()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case r := <-ch:
		return r.data, r.status, r.err
	}
}

// bulkViaRelay fetches target through the relay and unwraps its contents field.
func bulkViaRelay(ctx context.Context, target string) ([]byte, error) {
	relayURL := engine.Cfg.RelayURL + "?url=" + url.QueryEscape(target)
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, relayURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("relay status %d", resp.StatusCode)
	}

	var env relayEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, bulkMaxBody)).Decode(&env); err != nil {
		return nil, fmt.Errorf("relay decode: %w", err)
	}
	if strings.TrimSpace(env.Contents) == "" {
		return nil, fmt.Errorf("relay: empty contents")
	}
	return []byte(env.Contents), nil
}
