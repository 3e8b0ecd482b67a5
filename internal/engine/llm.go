package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GroundedRequest is one structured-generation call with web search enabled.
type GroundedRequest struct {
	Prompt string
	Schema *genai.Schema
}

// GroundedResponse carries the generated text and the response-level
// grounding citations (title/uri candidates).
type GroundedResponse struct {
	Text       string
	References []GroundingReference
}

// GroundedBackend generates a schema-constrained answer.
type GroundedBackend interface {
	Generate(ctx context.Context, req GroundedRequest) (*GroundedResponse, error)
}

// BackendFactory builds a fresh backend handle. It is called once per
// retry attempt so no client state carries over from a failed attempt.
type BackendFactory func(ctx context.Context) (GroundedBackend, error)

// GeminiBackend talks to the Gemini API with Google Search grounding.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// GeminiFactory returns a BackendFactory creating a new genai client per call.
func GeminiFactory(apiKey, model string) BackendFactory {
	return func(ctx context.Context) (GroundedBackend, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, err
		}
		return &GeminiBackend{client: client, model: model}, nil
	}
}

func (g *GeminiBackend) Generate(ctx context.Context, req GroundedRequest) (*GroundedResponse, error) {
	config := &genai.GenerateContentConfig{
		Tools:            []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			err = &StatusError{Code: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out := &GroundedResponse{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			out.References = append(out.References, GroundingReference{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}
	return out, nil
}

// VideoListSchema is the output schema for grounded video listings:
// an array of objects with six required string fields.
func VideoListSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":           str("A valid 11-character YouTube video ID, e.g. jNQXAC9IVRw"),
				"title":        str("Video title"),
				"channelTitle": str("Channel name"),
				"viewCount":    str("View count, e.g. 1.2M"),
				"publishedAt":  str("Publish date"),
				"duration":     str("Duration, e.g. 4:13"),
			},
			Required: []string{"id", "title", "channelTitle", "viewCount", "publishedAt", "duration"},
		},
	}
}

// groundedItem mirrors one element of VideoListSchema.
type groundedItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	ViewCount    string `json:"viewCount"`
	PublishedAt  string `json:"publishedAt"`
	Duration     string `json:"duration"`
	Description  string `json:"description"`
}

// ParseVideoArray decodes generated text into partially filled records.
// Absent or unparseable text yields an empty slice.
func ParseVideoArray(text string) []VideoRecord {
	text = stripFences(text)
	if text == "" {
		return []VideoRecord{}
	}
	if i := strings.Index(text, "["); i > 0 {
		if j := strings.LastIndex(text, "]"); j > i {
			text = text[i : j+1]
		}
	}
	var items []groundedItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return []VideoRecord{}
	}
	out := make([]VideoRecord, 0, len(items))
	for _, it := range items {
		out = append(out, VideoRecord{
			ID:               strings.TrimSpace(it.ID),
			Title:            it.Title,
			ChannelTitle:     it.ChannelTitle,
			ViewCountDisplay: it.ViewCount,
			PublishedDisplay: it.PublishedAt,
			DurationDisplay:  it.Duration,
			Description:      it.Description,
		})
	}
	return out
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RewriteQuery uses the LLM to turn a conversational query into search keywords.
// Any failure, or a disabled client, returns the query unchanged.
func RewriteQuery(ctx context.Context, query string) string {
	if cfg.LLMClient == nil || strings.TrimSpace(query) == "" {
		return query
	}
	prompt := fmt.Sprintf(rewriteQueryPrompt, query)
	metrics.LLMCalls.Add(1)
	raw, err := cfg.LLMClient.Complete(ctx, "", prompt,
		llm.WithChatTemperature(0.3),
		llm.WithChatMaxTokens(100),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return query
	}
	rewritten := strings.Trim(stripFences(raw), " \"'")
	if rewritten == "" || len(rewritten) > 200 || strings.Contains(rewritten, "\n") {
		return query
	}
	return rewritten
}
