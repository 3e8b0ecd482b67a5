// Package toolutil provides shared helpers for the MCP tools and the JSON API.
package toolutil

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

// NormQuery trims surrounding whitespace from a tool query.
func NormQuery(q string) string {
	return strings.TrimSpace(q)
}

// NormPlatform resolves a tool platform argument; empty means the primary platform.
func NormPlatform(p string) engine.Platform {
	return engine.ParsePlatform(p)
}

// SearchOutput wraps records into the tool output shape. Videos is never nil.
func SearchOutput(query string, p engine.Platform, records []engine.VideoRecord) engine.VideoSearchOutput {
	if records == nil {
		records = []engine.VideoRecord{}
	}
	return engine.VideoSearchOutput{
		Query:    query,
		Platform: p,
		Count:    len(records),
		Videos:   records,
	}
}

// ToolError wraps a search error for a tool response.
func ToolError(tool string, err error) error {
	if engine.IsBusy(err) {
		return fmt.Errorf("%s: server busy, retry in a moment: %w", tool, err)
	}
	return fmt.Errorf("%s: %w", tool, err)
}
