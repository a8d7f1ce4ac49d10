package extract

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	htmlTagPattern    = regexp.MustCompile(`(?i)</?(p|div|br|ul|ol|li|a|html|body|table|tr|td|span|strong|em|b|i|h[1-6])\b[^>]*>`)
	anyTagPattern     = regexp.MustCompile(`<[^>]*>`)
	scriptPattern     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	blankLinesPattern = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
	spaceRunPattern   = regexp.MustCompile(`[ \t\f\v]+`)
)

// blockTags end a line of text when they open or close
var blockTags = map[string]bool{
	"p": true, "div": true, "ul": true, "ol": true, "li": true, "table": true,
	"tr": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "blockquote": true, "section": true, "center": true,
}

// balancedTags must be explicitly closed in well-formed mail markup
var balancedTags = []string{"div", "ul", "ol", "a", "table"}

// IsHTML reports whether body carries HTML markup
func IsHTML(body string) bool {
	return htmlTagPattern.MatchString(body)
}

// Malformed reports whether an HTML body has markup the block heuristics
// cannot trust: unbalanced container tags or a tokenizer error.
func Malformed(body string) bool {
	if !IsHTML(body) {
		return false
	}

	opened := make(map[string]int)
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return true
			}
			for _, tag := range balancedTags {
				if opened[tag] != 0 {
					return true
				}
			}
			return false
		case html.StartTagToken:
			name, _ := z.TagName()
			opened[string(name)]++
		case html.EndTagToken:
			name, _ := z.TagName()
			opened[string(name)]--
		}
	}
}

// PlainText renders body as plain text. Block-level tags become line
// breaks, <br> becomes a newline, entities are decoded and script/style
// content is dropped. Plain-text bodies only get entity decoding.
func PlainText(body string) string {
	if !IsHTML(body) {
		return tidy(html.UnescapeString(body))
	}
	if Malformed(body) {
		return StripTags(body)
	}

	var b strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				}
			case tag == "br":
				b.WriteString("\n")
			case blockTags[tag]:
				b.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case blockTags[tag]:
				b.WriteString("\n")
			}
		}
	}
}

// StripTags removes markup with regular expressions. It is the fallback for
// bodies the tokenizer-based path cannot trust.
func StripTags(body string) string {
	text := scriptPattern.ReplaceAllString(body, "")
	text = regexp.MustCompile(`(?i)<br\s*/?>`).ReplaceAllString(text, "\n")
	text = regexp.MustCompile(`(?i)</?(p|div|li|ul|ol|tr|h[1-6])\b[^>]*>`).ReplaceAllString(text, "\n")
	text = anyTagPattern.ReplaceAllString(text, "")
	return tidy(html.UnescapeString(text))
}

// rawText decodes entities in a plain-text body but keeps each line's
// indentation
func rawText(body string) string {
	return strings.ReplaceAll(html.UnescapeString(body), "\r\n", "\n")
}

// tidyLine collapses whitespace runs in one line and trims it
func tidyLine(line string) string {
	line = strings.ReplaceAll(line, "\u00a0", " ")
	return strings.TrimSpace(spaceRunPattern.ReplaceAllString(line, " "))
}

func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, " ", " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunPattern.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
