package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/cfpqc/internal/extract"
	"github.com/ppiankov/cfpqc/internal/model"
)

// CredibilityClassifier decides whether a link is a credibility link: a
// secondary page on the journal's own site (about, editorial board, current
// issue) rather than the call to action.
type CredibilityClassifier struct {
	pathPatterns []*regexp.Regexp
	listed       map[string]bool
}

// NewCredibilityClassifier creates a classifier for the configured path
// segments. Extra URLs (the draft's own credibility list) are always treated
// as credibility links.
func NewCredibilityClassifier(config *model.RulesConfig, extra ...string) *CredibilityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Rules
	}

	classifier := &CredibilityClassifier{
		listed: make(map[string]bool),
	}

	for _, segment := range config.CredibilityPaths {
		if re := compileSegment(segment); re != nil {
			classifier.pathPatterns = append(classifier.pathPatterns, re)
		}
	}

	for _, u := range extra {
		if key := normalizeURL(u); key != "" {
			classifier.listed[key] = true
		}
	}

	return classifier
}

// WithListed returns a copy that also treats urls as credibility links
func (c *CredibilityClassifier) WithListed(urls []string) *CredibilityClassifier {
	out := &CredibilityClassifier{
		pathPatterns: c.pathPatterns,
		listed:       make(map[string]bool, len(c.listed)+len(urls)),
	}
	for k := range c.listed {
		out.listed[k] = true
	}
	for _, u := range urls {
		if key := normalizeURL(u); key != "" {
			out.listed[key] = true
		}
	}
	return out
}

// IsCredibility reports whether rawURL is a credibility link for the journal
// whose submission page is submitURL. Explicitly listed URLs always qualify.
func (c *CredibilityClassifier) IsCredibility(rawURL, submitURL string) bool {
	if c.listed[normalizeURL(rawURL)] {
		return true
	}
	return c.SameSite(rawURL, submitURL) && c.MatchesPath(rawURL)
}

// SameSite reports whether both URLs share a registered domain
func (c *CredibilityClassifier) SameSite(rawURL, submitURL string) bool {
	site := extract.RegisteredDomain(submitURL)
	return site != "" && extract.RegisteredDomain(rawURL) == site
}

// MatchesPath reports whether the URL path names a credibility page
func (c *CredibilityClassifier) MatchesPath(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(parsed.Path)
	if parsed.Fragment != "" {
		path += "/" + strings.ToLower(parsed.Fragment)
	}

	for _, re := range c.pathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// compileSegment turns "editorial-board" into a pattern matching the
// segment with any of "-", "_" or nothing between words, optionally plural.
func compileSegment(segment string) *regexp.Regexp {
	segment = strings.ToLower(strings.TrimSpace(segment))
	if segment == "" {
		return nil
	}

	words := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}

	pattern := `(^|/)` + strings.Join(words, `[-_]?`) + `s?(-[a-z-]+)?(/|\.[a-z]+$|$)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

// normalizeURL drops scheme case, "www." and trailing slashes so listed URLs
// compare equal to the forms that appear in mail bodies
func normalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	path := strings.TrimRight(parsed.EscapedPath(), "/")
	key := host + path
	if parsed.RawQuery != "" {
		key += "?" + parsed.RawQuery
	}
	return key
}
