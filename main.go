// go_streamx: video discovery front-end and MCP server.
//
// Serves the StreamX grid page (search, categories, overlay player,
// simulated account linking, premium toggle) on WEB_ADDR and exposes three
// MCP tools: video_search, video_recommended, video_feed.
// Sources: Dailymotion public API (with relay fallback) and Gemini
// generative search grounded on Google Search standing in for YouTube search.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/browser"

	"github.com/anatolykoptev/go_streamx/internal/adslot"
	"github.com/anatolykoptev/go_streamx/internal/engine"
	"github.com/anatolykoptev/go_streamx/internal/engine/sources"
	"github.com/anatolykoptev/go_streamx/internal/store"
	"github.com/anatolykoptev/go_streamx/internal/ui"
	"github.com/anatolykoptev/go_streamx/internal/videoserver"
	"github.com/anatolykoptev/go_streamx/internal/web"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(".env not loaded", slog.Any("error", err))
	}
	initLogging()
	initEngine()

	mcpPort := env.Str("MCP_PORT", "8892")
	webAddr := env.Str("WEB_ADDR", ":8080")

	slog.Info("starting go_streamx",
		slog.String("mcp_port", mcpPort),
		slog.String("web_addr", webAddr),
	)

	st := openStore()
	defer st.Close()

	searcher := engine.NewSearcher(sources.FetchBulkListing, sources.FetchGroundedListing)
	prefs := ui.NewPrefs(st)

	site := web.New(web.Options{
		Fetcher: searcher,
		Prefs:   prefs,
		Linker:  ui.NewLinker(prefs, ui.DefaultPollInterval),
		Ads: adslot.Config{
			Bottom:  env.Str("AD_BOTTOM_URL", adslot.Placeholder),
			Social:  env.Str("AD_SOCIAL_URL", adslot.Placeholder),
			Sidebar: env.Str("AD_SIDEBAR_URL", adslot.Placeholder),
		},
		HTTPClient: engine.Cfg.HTTPClient,
	})
	defer site.Close()
	httpSrv := &http.Server{
		Addr:              webAddr,
		Handler:           site.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("web server failed", slog.Any("error", err))
		}
	}()
	if envBool("OPEN_BROWSER") {
		go openBrowser(webAddr)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_streamx",
		Version: version,
	}, nil)

	videoserver.RegisterTools(server, searcher)
	slog.Info("tools registered", slog.Int("count", 3))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_streamx",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
}

func initLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(env.Str("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func initEngine() {
	c := engine.Config{
		BulkListingURL:      env.Str("DAILYMOTION_API_URL", "https://api.dailymotion.com"),
		RelayURL:            env.Str("RELAY_URL", "https://api.allorigins.win/get"),
		GeminiAPIKey:        env.Str("GEMINI_API_KEY", ""),
		GeminiModel:         env.Str("GEMINI_MODEL", "gemini-2.5-flash"),
		GroundedMaxAttempts: env.Int("GROUNDED_MAX_ATTEMPTS", 5),
		GroundedRPS:         env.Float("GROUNDED_RPS", 0),
		RewriteQueries:      envBool("LLM_REWRITE_QUERIES"),
		ThumbCacheTTL:       env.Duration("THUMB_CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:     env.Int("CACHE_MAX_ENTRIES", 1000),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	if c.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, YouTube search will return empty grids")
	}

	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(15))

	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	if apiKey := env.Str("LLM_API_KEY", ""); apiKey != "" {
		c.LLMClient = llm.NewClient(
			env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
			apiKey,
			env.Str("LLM_MODEL", "gemini-2.5-flash"),
			llm.WithFallbackKeys(env.List("LLM_API_KEY_FALLBACKS", "")),
			llm.WithMaxTokens(256),
			llm.WithTemperature(0.3),
			llm.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		)
	} else if c.RewriteQueries {
		slog.Warn("LLM_REWRITE_QUERIES set without LLM_API_KEY, rewriting disabled")
	}

	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), c.ThumbCacheTTL, c.CacheMaxEntries,
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second))
}

// openStore connects the preference store; an unavailable database falls
// back to process memory so the front-end still works.
func openStore() store.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := store.Open(ctx, env.Str("DATABASE_URL", ""))
	if err != nil {
		slog.Warn("preference store unavailable, using memory", slog.Any("error", err))
		return store.NewMemory()
	}
	return st
}

func openBrowser(addr string) {
	target := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		target = "http://localhost" + addr
	}
	time.Sleep(300 * time.Millisecond)
	if err := browser.OpenURL(target); err != nil {
		slog.Warn("open browser failed", slog.String("url", target), slog.Any("error", err))
	}
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(env.Str(key, "false"))
	return err == nil && v
}
