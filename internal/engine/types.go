package engine

import "strings"

// Platform identifies which video source produced a record.
type Platform string

const (
	PlatformYouTube     Platform = "youtube"     // primary, served by the grounded source
	PlatformDailymotion Platform = "dailymotion" // secondary, served by the bulk listing
)

// Platforms lists every platform in display order.
var Platforms = []Platform{PlatformYouTube, PlatformDailymotion}

// ParsePlatform accepts "youtube"/"YouTube"/"dailymotion"/"Dailymotion".
// Anything else resolves to the primary platform.
func ParsePlatform(s string) Platform {
	if strings.EqualFold(strings.TrimSpace(s), string(PlatformDailymotion)) {
		return PlatformDailymotion
	}
	return PlatformYouTube
}

// DisplayName returns the user-facing platform name.
func (p Platform) DisplayName() string {
	if p == PlatformDailymotion {
		return "Dailymotion"
	}
	return "YouTube"
}

// GroundingReference is a {title, uri} citation attached by the grounded source.
type GroundingReference struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// VideoRecord is the normalized unit returned by both sources.
// Display fields are formatted once at ingestion.
type VideoRecord struct {
	ID                  string               `json:"id"`
	Title               string               `json:"title"`
	ThumbnailURL        string               `json:"thumbnail"`
	ChannelTitle        string               `json:"channelTitle"`
	ViewCountDisplay    string               `json:"viewCount"`
	PublishedDisplay    string               `json:"publishedAt"`
	DurationDisplay     string               `json:"duration"`
	SourcePlatform      Platform             `json:"source"`
	Description         string               `json:"description,omitempty"`
	GroundingReferences []GroundingReference `json:"groundingSources,omitempty"`
}

// Key is the record identity used for deduplication: platform plus id.
func (v VideoRecord) Key() string {
	return string(v.SourcePlatform) + "-" + v.ID
}

// --- Tool inputs/outputs ---

type VideoSearchInput struct {
	Query    string `json:"query" jsonschema:"Search query"`
	Platform string `json:"platform,omitempty" jsonschema:"Video platform: youtube (default, AI-grounded search) or dailymotion (public listing API)"`
}

type VideoFeedInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Video platform: youtube (default) or dailymotion"`
}

type VideoRecommendedInput struct{}

type VideoSearchOutput struct {
	Query    string        `json:"query"`
	Platform Platform      `json:"platform"`
	Count    int           `json:"count"`
	Videos   []VideoRecord `json:"videos"`
}
