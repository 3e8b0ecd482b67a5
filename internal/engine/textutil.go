package engine

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// UserAgentBot identifies StreamX on plain HTTP requests.
const UserAgentBot = "GoStreamX/1.0"

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// CleanText strips HTML tags and collapses whitespace in titles and descriptions.
func CleanText(s string) string {
	return strings.Join(strings.Fields(htmlTagRe.ReplaceAllString(s, "")), " ")
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

