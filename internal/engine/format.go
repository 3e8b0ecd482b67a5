package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// PublishedFallback is shown when a source gives no publish timestamp.
const PublishedFallback = "Recently"

// FormatDuration renders seconds as M:SS or H:MM:SS.
func FormatDuration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatViews renders a view count with one decimal and a B/M/K suffix.
func FormatViews(count int64) string {
	switch {
	case count >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(count)/1_000_000_000)
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fK", float64(count)/1_000)
	}
	return strconv.FormatInt(count, 10)
}

// FormatPublished renders a Unix timestamp (seconds) as a short local date.
// Zero means unknown.
func FormatPublished(unix int64, loc *time.Location) string {
	if unix <= 0 {
		return PublishedFallback
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc).Format("1/2/2006")
}

// NormalizeDuration converts ISO-8601 ("PT4M13S") or bare-seconds durations
// into FormatDuration form. Clock-style and free-text values pass through.
func NormalizeDuration(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return FormatDuration(0)
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return FormatDuration(secs)
	}
	if strings.HasPrefix(strings.ToUpper(s), "P") {
		d, err := duration.Parse(strings.ToUpper(s))
		if err == nil {
			return FormatDuration(int(d.ToTimeDuration() / time.Second))
		}
	}
	return s
}
