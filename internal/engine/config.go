package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"golang.org/x/time/rate"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	BulkListingURL      string // Dailymotion API base, no trailing slash
	RelayURL            string // CORS relay taking ?url=<target>
	GeminiAPIKey        string
	GeminiModel         string
	GroundedMaxAttempts int
	GroundedRPS         float64 // 0 = unpaced
	GroundedRetry       RetryPolicy
	RewriteQueries      bool
	ThumbCacheTTL       time.Duration
	CacheMaxEntries     int
	HTTPClient          *http.Client
	BrowserClient       *BrowserClient // nil = direct requests go through HTTPClient
	LLMClient           *llm.Client    // nil = query rewriting disabled
	Backend             BackendFactory // nil = Gemini via genai
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources).
// Always points to the current cfg value.
var Cfg = &cfg

// groundedLimiter paces grounded backend attempts; nil when GroundedRPS is 0.
var groundedLimiter *rate.Limiter

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.GroundedMaxAttempts <= 0 {
		c.GroundedMaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if c.GroundedRetry.Unit == 0 {
		c.GroundedRetry = DefaultRetryPolicy
	}
	c.GroundedRetry.MaxAttempts = c.GroundedMaxAttempts
	if c.GeminiModel == "" {
		c.GeminiModel = defaultGeminiModel
	}
	if c.Backend == nil {
		c.Backend = GeminiFactory(c.GeminiAPIKey, c.GeminiModel)
	}
	cfg = c
	Cfg = &cfg

	groundedLimiter = nil
	if c.GroundedRPS > 0 {
		groundedLimiter = rate.NewLimiter(rate.Limit(c.GroundedRPS), 1)
	}
}
