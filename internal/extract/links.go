package extract

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// LinkKind classifies a link found in an email body
type LinkKind string

const (
	LinkCTA         LinkKind = "cta"
	LinkUnsubscribe LinkKind = "unsubscribe"
	LinkWebVersion  LinkKind = "webversion"
	LinkMailto      LinkKind = "mailto"
	LinkOther       LinkKind = "other" // Anchors, javascript: and other non-web targets
)

// Link is one link occurrence in a body
type Link struct {
	URL              string
	Text             string
	Kind             LinkKind
	Host             string
	RegisteredDomain string
	Anchor           bool // true for <a href>, false for a bare URL in text
}

var (
	bareURLPattern = regexp.MustCompile(`(?i)https?://[^\s)>\]"'<]+`)
	emailPattern   = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
)

// Links returns every link occurrence in body, in document order.
// HTML bodies contribute their anchors and any bare URLs in text nodes;
// plain-text bodies contribute bare URLs.
func Links(body string) []Link {
	if !IsHTML(body) || Malformed(body) {
		return bareLinks(StripTags(body))
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return bareLinks(StripTags(body))
	}

	var links []Link
	var walk func(n *html.Node, inAnchor bool)
	walk = func(n *html.Node, inAnchor bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "a":
				if href := attr(n, "href"); href != "" {
					links = append(links, newLink(strings.TrimSpace(href), nodeText(n), true))
				}
				inAnchor = true
			}
		}

		if n.Type == html.TextNode && !inAnchor {
			links = append(links, bareLinks(n.Data)...)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inAnchor)
		}
	}
	walk(doc, false)

	return links
}

// WebLinks filters links down to http(s) targets
func WebLinks(links []Link) []Link {
	var out []Link
	for _, l := range links {
		if l.Host != "" {
			out = append(out, l)
		}
	}
	return out
}

// UniqueURLs returns the distinct URLs of links, first occurrence first
func UniqueURLs(links []Link) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		if !seen[l.URL] {
			seen[l.URL] = true
			out = append(out, l.URL)
		}
	}
	return out
}

// StripURLs removes bare URLs from text so phrase checks only see prose
func StripURLs(text string) string {
	return bareURLPattern.ReplaceAllString(text, " ")
}

// MaskURLs blanks bare URLs with spaces so offsets into text stay valid
func MaskURLs(text string) string {
	return bareURLPattern.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}

// Emails returns the distinct e-mail addresses visible in text, lower-cased
func Emails(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// ClassifyLink decides what a link target is for
func ClassifyLink(href string) LinkKind {
	lower := strings.ToLower(strings.TrimSpace(href))

	switch {
	case strings.HasPrefix(lower, "mailto:"):
		return LinkMailto
	case strings.Contains(lower, "unsubscribe") || strings.Contains(lower, "optout") || strings.Contains(lower, "opt-out"):
		return LinkUnsubscribe
	case strings.Contains(lower, "webversion") || strings.Contains(lower, "web-version") || strings.Contains(lower, "view-in-browser"):
		return LinkWebVersion
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return LinkCTA
	}
	return LinkOther
}

// RegisteredDomain returns the public-suffix-aware registrable domain of a
// URL or host: sub.example.co.uk -> example.co.uk. Hosts without a known
// suffix (localhost, IPs) are returned as-is. Unparseable input yields "".
func RegisteredDomain(rawURL string) string {
	host := rawURL
	if strings.Contains(rawURL, "://") {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return ""
		}
		host = parsed.Hostname()
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return ""
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func newLink(href, text string, anchor bool) Link {
	link := Link{
		URL:    href,
		Text:   text,
		Kind:   ClassifyLink(href),
		Anchor: anchor,
	}

	if link.Kind == LinkMailto || link.Kind == LinkOther {
		return link
	}

	if parsed, err := url.Parse(href); err == nil && parsed.Hostname() != "" {
		link.Host = strings.ToLower(parsed.Hostname())
		link.RegisteredDomain = RegisteredDomain(link.Host)
	}

	return link
}

func bareLinks(text string) []Link {
	var links []Link
	for _, raw := range bareURLPattern.FindAllString(text, -1) {
		raw = strings.TrimRight(raw, ".,;:!?")
		links = append(links, newLink(raw, "", false))
	}
	return links
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
