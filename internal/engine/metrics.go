package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests     atomic.Int64
	BulkRequests       atomic.Int64
	RelayFallbacks     atomic.Int64
	BulkFailures       atomic.Int64
	GroundedCalls      atomic.Int64
	GroundedRateLimits atomic.Int64
	GroundedErrors     atomic.Int64
	GroundedFailures   atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	ThumbRequests      atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"search_requests":      metrics.SearchRequests.Load(),
		"bulk_requests":        metrics.BulkRequests.Load(),
		"relay_fallbacks":      metrics.RelayFallbacks.Load(),
		"bulk_failures":        metrics.BulkFailures.Load(),
		"grounded_calls":       metrics.GroundedCalls.Load(),
		"grounded_rate_limits": metrics.GroundedRateLimits.Load(),
		"grounded_errors":      metrics.GroundedErrors.Load(),
		"grounded_failures":    metrics.GroundedFailures.Load(),
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"thumb_requests":       metrics.ThumbRequests.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

var metricKeys = []string{
	"search_requests",
	"bulk_requests", "relay_fallbacks", "bulk_failures",
	"grounded_calls", "grounded_rate_limits", "grounded_errors", "grounded_failures",
	"llm_calls", "llm_errors",
	"thumb_requests",
	"cache_hits", "cache_misses",
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ and web/ sub-packages.
func IncrBulkRequests()     { metrics.BulkRequests.Add(1) }
func IncrRelayFallbacks()   { metrics.RelayFallbacks.Add(1) }
func IncrBulkFailures()     { metrics.BulkFailures.Add(1) }
func IncrGroundedFailures() { metrics.GroundedFailures.Add(1) }
func IncrThumbRequests()    { metrics.ThumbRequests.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
