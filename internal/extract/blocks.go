package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/cfpqc/internal/textmetrics"
)

// BlockKind is the structural role of a body block
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockList      BlockKind = "list"
)

// Block is one visually separate unit of an email body
type Block struct {
	Kind   BlockKind
	Text   string // Line breaks inside the block are kept as "\n"
	Nested bool   // List holds a sub-list or indented bullets
}

// Lines returns the non-empty lines of the block
func (b Block) Lines() []string {
	var out []string
	for _, line := range strings.Split(b.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Structure is the block layout of a body
type Structure struct {
	Blocks    []Block
	HTML      bool
	Malformed bool // Markup could not be trusted; blocks come from stripped text
}

var (
	bulletLinePattern  = regexp.MustCompile(`^\s*(?:[•●▪◦‣]|[*\-]\s)`)
	salutationPattern  = regexp.MustCompile(`(?i)^\s*(dear|hello|hi|greetings)\b`)
	sentenceEndPattern = regexp.MustCompile(`[.!?]["')\]]?(\s+|$)`)
)

// containerTags hold other blocks; they become a single paragraph only when
// they have no block children of their own
var containerTags = map[string]bool{
	"html": true, "body": true, "div": true, "section": true, "article": true,
	"main": true, "center": true, "table": true, "tbody": true, "thead": true,
	"tr": true, "td": true, "th": true, "blockquote": true,
}

var paragraphTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Parse splits body into paragraph and list blocks. HTML bodies are walked
// with goquery; plain-text and malformed HTML bodies fall back to line
// heuristics over the stripped text.
func Parse(body string) Structure {
	if !IsHTML(body) {
		return Structure{Blocks: textBlocks(rawText(body))}
	}
	if Malformed(body) {
		return Structure{Blocks: textBlocks(StripTags(body)), HTML: true, Malformed: true}
	}

	blocks, err := htmlBlocks(body)
	if err != nil {
		return Structure{Blocks: textBlocks(StripTags(body)), HTML: true, Malformed: true}
	}
	return Structure{Blocks: blocks, HTML: true}
}

// Paragraphs returns the paragraph blocks, a leading salutation excluded
func (s Structure) Paragraphs() []Block {
	var out []Block
	for _, b := range s.content() {
		if b.Kind == BlockParagraph {
			out = append(out, b)
		}
	}
	return out
}

// Intro returns the opening text of the body: the first line of the first
// paragraph block. Plain-text bodies made of a single block fall back to the
// first sentence.
func (s Structure) Intro() string {
	paragraphs := s.Paragraphs()
	if len(paragraphs) == 0 {
		return ""
	}

	lines := paragraphs[0].Lines()
	if len(lines) == 0 {
		return ""
	}

	if !s.HTML && len(s.Blocks) == 1 {
		return firstSentence(lines[0])
	}
	return lines[0]
}

// ListBetween reports whether a list block sits between paragraph n and n+1
// (1-based), a leading salutation excluded.
func (s Structure) ListBetween(n int) bool {
	paragraphs := 0
	listSeen := false
	for _, b := range s.content() {
		switch b.Kind {
		case BlockParagraph:
			if paragraphs == n && listSeen {
				return true
			}
			paragraphs++
			listSeen = false
		case BlockList:
			if paragraphs == n {
				listSeen = true
			}
		}
		if paragraphs > n {
			return false
		}
	}
	return false
}

// content drops a leading "Dear ..." salutation block
func (s Structure) content() []Block {
	if len(s.Blocks) > 0 && IsSalutation(s.Blocks[0].Text) {
		return s.Blocks[1:]
	}
	return s.Blocks
}

// IsSalutation reports whether text is a short greeting line
func IsSalutation(text string) bool {
	text = strings.TrimSpace(text)
	return salutationPattern.MatchString(text) &&
		!strings.Contains(text, "\n") &&
		textmetrics.WordCount(text) <= 8
}

func htmlBlocks(body string) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var blocks []Block
	var inline strings.Builder

	// Inline content outside paragraph tags is split on line breaks, so
	// <br>-separated text reads like plain-text lines
	flush := func() {
		if strings.TrimSpace(inline.String()) != "" {
			blocks = append(blocks, textBlocks(tidy(inline.String()))...)
		}
		inline.Reset()
	}

	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, s *goquery.Selection) {
			name := goquery.NodeName(s)
			switch {
			case name == "script" || name == "style" || name == "head" || name == "#comment":
			case name == "ul" || name == "ol":
				flush()
				blocks = append(blocks, Block{
					Kind:   BlockList,
					Text:   listText(s),
					Nested: s.Find("ul, ol").Length() > 0,
				})
			case paragraphTags[name]:
				flush()
				blocks = append(blocks, paragraphOrBullets(renderInline(s))...)
			case containerTags[name]:
				if name == "html" || name == "body" || s.Find("p, div, ul, ol, table, h1, h2, h3, h4, h5, h6").Length() > 0 {
					flush()
					walk(s)
					flush()
					return
				}
				flush()
				blocks = append(blocks, paragraphOrBullets(renderInline(s))...)
			case name == "br":
				inline.WriteString("\n")
			case name == "#text":
				inline.WriteString(s.Text())
			default:
				inline.WriteString(renderInline(s))
			}
		})
	}
	walk(doc.Selection)
	flush()

	return blocks, nil
}

// renderInline returns the text of a selection with <br> kept as newlines
func renderInline(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "br":
				b.WriteString("\n")
			case "#text":
				b.WriteString(c.Text())
			case "script", "style":
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return tidy(b.String())
}

func listText(sel *goquery.Selection) string {
	var items []string
	sel.Find("li").Each(func(_ int, li *goquery.Selection) {
		if t := strings.TrimSpace(li.Text()); t != "" {
			items = append(items, t)
		}
	})
	if len(items) == 0 {
		return tidy(sel.Text())
	}
	return strings.Join(items, "\n")
}

// paragraphOrBullets turns a paragraph whose lines are literal bullets into
// list blocks
func paragraphOrBullets(text string) []Block {
	if text == "" {
		return nil
	}
	for _, line := range strings.Split(text, "\n") {
		if bulletLinePattern.MatchString(line) {
			return groupLines(strings.Split(text, "\n"))
		}
	}
	return []Block{{Kind: BlockParagraph, Text: text}}
}

// textBlocks splits plain text into blocks. Every non-empty line is a
// paragraph; runs of bullet lines form one list. A bullet indented deeper
// than the first bullet of its run marks the list as nested.
func textBlocks(text string) []Block {
	return groupLines(strings.Split(text, "\n"))
}

func groupLines(lines []string) []Block {
	var blocks []Block
	var bullets []string
	nested := false
	baseIndent := 0

	flush := func() {
		if len(bullets) > 0 {
			blocks = append(blocks, Block{Kind: BlockList, Text: strings.Join(bullets, "\n"), Nested: nested})
			bullets = nil
			nested = false
		}
	}

	for _, raw := range lines {
		line := tidyLine(raw)
		if line == "" {
			continue
		}
		if bulletLinePattern.MatchString(line) {
			indent := indentWidth(raw)
			if len(bullets) == 0 {
				baseIndent = indent
			} else if indent > baseIndent {
				nested = true
			}
			bullets = append(bullets, line)
			continue
		}
		flush()
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: line})
	}
	flush()

	return blocks
}

func firstSentence(text string) string {
	loc := sentenceEndPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return strings.TrimSpace(text[:loc[0]+1])
}

// indentWidth measures leading whitespace with tabs counted as four columns
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ', '\u00a0':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}
