// Package adslot renders the third-party ad containers shown to non-premium visitors.
package adslot

import (
	"bytes"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Slot names a position on the page.
type Slot string

const (
	SlotBottom  Slot = "bottom"  // Advertica banner under the grid
	SlotSocial  Slot = "social"  // Adsterra social bar, floating
	SlotSidebar Slot = "sidebar" // Moneytag script
)

// Placeholder is the value shipped in unconfigured deployments.
const Placeholder = "PASTE_LINK_HERE"

// PlaceholderText is shown in a slot with no configured network URL.
const PlaceholderText = "MONETIZATION SLOT"

// Config maps each slot to its ad-network script URL.
type Config struct {
	Bottom  string // Advertica
	Social  string // Adsterra
	Sidebar string // Moneytag
}

// URL returns the configured script URL for slot.
func (c Config) URL(slot Slot) string {
	switch slot {
	case SlotSocial:
		return c.Social
	case SlotBottom:
		return c.Bottom
	}
	return c.Sidebar
}

// Configured reports whether url points at a real ad script.
func Configured(url string) bool {
	u := strings.TrimSpace(url)
	return u != "" && u != Placeholder
}

func minHeight(slot Slot) string {
	if slot == SlotBottom {
		return "60px"
	}
	return "100px"
}

// Render returns the HTML for one slot. Premium visitors get nothing; an
// unconfigured slot shows the placeholder; otherwise the container holds an
// async script tag pointing at url.
func Render(slot Slot, url string, premium bool) string {
	if premium {
		return ""
	}

	root := element(atom.Div,
		html.Attribute{Key: "class", Val: "ad-slot ad-" + string(slot)},
		html.Attribute{Key: "data-slot", Val: string(slot)},
	)
	dismiss := element(atom.Button,
		html.Attribute{Key: "type", Val: "button"},
		html.Attribute{Key: "class", Val: "ad-dismiss"},
		html.Attribute{Key: "aria-label", Val: "Dismiss"},
	)
	dismiss.AppendChild(&html.Node{Type: html.TextNode, Data: "×"})
	root.AppendChild(dismiss)

	body := element(atom.Div, html.Attribute{Key: "class", Val: "ad-body"})
	root.AppendChild(body)

	if !Configured(url) {
		ph := element(atom.Div, html.Attribute{Key: "class", Val: "ad-placeholder"})
		ph.AppendChild(&html.Node{Type: html.TextNode, Data: PlaceholderText})
		body.AppendChild(ph)
	} else {
		body.Attr = append(body.Attr, html.Attribute{Key: "style", Val: "min-height:" + minHeight(slot)})
		body.AppendChild(element(atom.Script,
			html.Attribute{Key: "src", Val: strings.TrimSpace(url)},
			html.Attribute{Key: "async"},
		))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		slog.Warn("adslot: render failed", slog.String("slot", string(slot)), slog.Any("error", err))
		return ""
	}
	return buf.String()
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
