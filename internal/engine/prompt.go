package engine

import "fmt"

// Prompt templates and canned queries, data only.

// groundedListingPrompt asks the grounded backend for a fixed-size listing.
// Args: user query.
const groundedListingPrompt = `Search for 12 currently popular and existing YouTube videos related to: "%s". Return the data strictly as a JSON array of video objects.`

// rewriteQueryPrompt converts a conversational query to a video-search keyword form.
// Args: original query.
const rewriteQueryPrompt = `Rewrite the following request into a concise video-search query.
Output ONLY the rewritten query: no explanation, no punctuation at the end, no quotes.
Keep it under 8 words. Use the same language as the input.

Request: %s`

// RecommendedQuery drives the trending listing.
const RecommendedQuery = "latest trending viral videos music global 2024"

// feedPhrases are the fixed per-platform "personalized" prompts.
var feedPhrases = map[Platform]string{
	PlatformYouTube:     "personalized youtube video recommendations based on popular content",
	PlatformDailymotion: "trending dailymotion videos curated for you",
}

// FeedPhrase returns the canned feed query for a platform.
func FeedPhrase(p Platform) string {
	if s, ok := feedPhrases[p]; ok {
		return s
	}
	return feedPhrases[PlatformYouTube]
}

// GroundedPrompt renders the grounded listing prompt for a query.
func GroundedPrompt(query string) string {
	return fmt.Sprintf(groundedListingPrompt, query)
}
