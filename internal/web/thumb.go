package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_streamx/internal/engine"
)

const maxThumbSize = 5 << 20

// DefaultThumbHosts are the image CDNs both sources serve thumbnails from.
var DefaultThumbHosts = []string{
	"ytimg.com",
	"ggpht.com",
	"dmcdn.net",
	"dailymotion.com",
}

// allowedHost reports whether host equals one of suffixes or is a subdomain of it.
func allowedHost(host string, suffixes []string) bool {
	host = strings.ToLower(host)
	for _, s := range suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// errRedirectHost rejects a thumbnail redirect leaving the allow-list.
var errRedirectHost = errors.New("redirect to host not permitted")

// thumbClient copies base so that every redirect hop is held to the same
// host allow-list as the requested URL.
func thumbClient(base *http.Client, hosts []string) *http.Client {
	c := *base
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("too many redirects")
		}
		if !allowedHost(req.URL.Hostname(), hosts) {
			return fmt.Errorf("%w: %s", errRedirectHost, req.URL.Hostname())
		}
		return nil
	}
	return &c
}

// handleThumb proxies allow-listed thumbnail images through the tiered cache.
func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	engine.IncrThumbRequests()

	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}
	if !allowedHost(target.Hostname(), s.thumbHosts) {
		http.Error(w, "host not permitted", http.StatusForbidden)
		return
	}

	ctx := r.Context()
	key := target.String()
	if th, ok := engine.CacheGetThumbnail(ctx, key); ok {
		writeThumb(w, th)
		return
	}

	th, err := s.fetchThumb(r, key)
	if err != nil {
		slog.Debug("web: thumbnail fetch failed", slog.String("url", key), slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	engine.CacheSetThumbnail(ctx, key, th)
	writeThumb(w, th)
}

func (s *Server) fetchThumb(r *http.Request, target string) (engine.Thumbnail, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return engine.Thumbnail{}, err
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)

	resp, err := s.client.Do(req)
	if err != nil {
		return engine.Thumbnail{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return engine.Thumbnail{}, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbSize))
	if err != nil {
		return engine.Thumbnail{}, err
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return engine.Thumbnail{ContentType: ct, Body: body}, nil
}

func writeThumb(w http.ResponseWriter, th engine.Thumbnail) {
	w.Header().Set("Content-Type", th.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(th.Body)
}

func handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, engine.FormatMetrics())
}
