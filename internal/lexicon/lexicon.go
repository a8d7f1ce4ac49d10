// Package lexicon classifies words and phrases against a fixed spam and
// buzzword vocabulary.
//
// A Lexicon is immutable once built. The process loads one at startup and
// hands it to the scorers and the rule engine; nothing mutates it afterwards,
// which makes it safe to share between goroutines.
package lexicon

import (
	"bufio"
	_ "embed"
	"fmt"
	"html"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/cfpqc/internal/textmetrics"
)

//go:embed spam_words.txt
var defaultWords string

// tokenPattern splits text into word tokens. Apostrophes and hyphens inside a
// word keep it whole ("don't", "fast-track"); "%" stays attached ("100%").
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}%]+(?:['’\-][\p{L}\p{N}%]+)*`)

var apostropheReplacer = strings.NewReplacer("’", "'", "‘", "'")

// ConfigurationError means the lexicon could not be loaded. It is fatal.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("lexicon %s: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Lexicon is a case-insensitive set of words and phrases
type Lexicon struct {
	entries map[string]struct{}   // canonical lower-case entry text
	byFirst map[string][][]string // first token -> phrases, longest first
}

// New builds a lexicon from a word list. Blank entries are skipped.
func New(words []string) *Lexicon {
	l := &Lexicon{
		entries: make(map[string]struct{}, len(words)),
		byFirst: make(map[string][][]string),
	}

	for _, w := range words {
		toks := tokenize(w)
		if len(toks) == 0 {
			continue
		}
		key := strings.Join(toks, " ")
		if _, dup := l.entries[key]; dup {
			continue
		}
		l.entries[key] = struct{}{}
		l.byFirst[toks[0]] = append(l.byFirst[toks[0]], toks)
	}

	for first := range l.byFirst {
		phrases := l.byFirst[first]
		sort.SliceStable(phrases, func(i, j int) bool {
			return len(phrases[i]) > len(phrases[j])
		})
	}

	return l
}

// Load reads one entry per line. Empty lines and '#' comments are ignored.
// An empty result is an error.
func Load(r io.Reader) (*Lexicon, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigurationError{Source: "reader", Err: err}
	}

	lex := New(words)
	if lex.Len() == 0 {
		return nil, &ConfigurationError{Source: "reader", Err: fmt.Errorf("no entries")}
	}
	return lex, nil
}

// LoadFile loads a lexicon from a word-list file
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	lex, err := Load(f)
	if err != nil {
		if cfgErr, ok := err.(*ConfigurationError); ok {
			cfgErr.Source = path
		}
		return nil, err
	}
	return lex, nil
}

// Default returns the embedded vocabulary
func Default() (*Lexicon, error) {
	lex, err := Load(strings.NewReader(defaultWords))
	if err != nil {
		return nil, &ConfigurationError{Source: "embedded", Err: err}
	}
	return lex, nil
}

// MustDefault is Default for package-level wiring; it panics on a broken build
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

// Len is the number of distinct entries
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// Contains reports whether word (or phrase) is an entry
func (l *Lexicon) Contains(word string) bool {
	_, ok := l.entries[strings.Join(tokenize(word), " ")]
	return ok
}

// Words returns all entries sorted
func (l *Lexicon) Words() []string {
	out := make([]string, 0, len(l.entries))
	for w := range l.entries {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Hit is one matched entry in a text
type Hit struct {
	Entry string
	Start int // Byte offsets into the original text
	End   int
}

// Scan returns every whole-word match in text, left to right. At each
// position the longest phrase wins. Entries listed in exceptions are ignored.
func (l *Lexicon) Scan(text string, exceptions ...string) []Hit {
	if l == nil || len(l.entries) == 0 || text == "" {
		return nil
	}

	skip := make(map[string]struct{}, len(exceptions))
	for _, e := range exceptions {
		skip[strings.Join(tokenize(e), " ")] = struct{}{}
	}

	locs := tokenPattern.FindAllStringIndex(text, -1)
	toks := make([]string, len(locs))
	for i, loc := range locs {
		toks[i] = normalizeToken(text[loc[0]:loc[1]])
	}

	var hits []Hit
	for i := 0; i < len(toks); {
		matched := 0
		for _, phrase := range l.byFirst[toks[i]] {
			if i+len(phrase) > len(toks) || !equalTokens(toks[i:i+len(phrase)], phrase) {
				continue
			}
			entry := strings.Join(phrase, " ")
			if _, skipped := skip[entry]; skipped {
				continue
			}
			hits = append(hits, Hit{
				Entry: entry,
				Start: locs[i][0],
				End:   locs[i+len(phrase)-1][1],
			})
			matched = len(phrase)
			break
		}
		if matched == 0 {
			matched = 1
		}
		i += matched
	}

	return hits
}

// FindHits returns the distinct entries present in text, sorted
func (l *Lexicon) FindHits(text string, exceptions ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range l.Scan(text, exceptions...) {
		if _, ok := seen[h.Entry]; ok {
			continue
		}
		seen[h.Entry] = struct{}{}
		out = append(out, h.Entry)
	}
	sort.Strings(out)
	return out
}

// Occurrences counts every match, repeats included
func (l *Lexicon) Occurrences(text string, exceptions ...string) int {
	return len(l.Scan(text, exceptions...))
}

// Density is len(hits) / max(1, words in text), clamped to [0, 1]
func Density(text string, hits []string) float64 {
	words := textmetrics.WordCount(text)
	if words < 1 {
		words = 1
	}
	d := float64(len(hits)) / float64(words)
	if d > 1 {
		d = 1
	}
	return d
}

// Highlight escapes text for HTML and wraps each hit in a <mark> tag.
// Escaping happens per segment so markup inside the draft is never
// interpreted and never escaped twice.
func (l *Lexicon) Highlight(text string, exceptions ...string) string {
	hits := l.Scan(text, exceptions...)
	if len(hits) == 0 {
		return html.EscapeString(text)
	}

	var b strings.Builder
	last := 0
	for _, h := range hits {
		b.WriteString(html.EscapeString(text[last:h.Start]))
		b.WriteString(`<mark class="spam">`)
		b.WriteString(html.EscapeString(text[h.Start:h.End]))
		b.WriteString(`</mark>`)
		last = h.End
	}
	b.WriteString(html.EscapeString(text[last:]))

	return b.String()
}

func tokenize(s string) []string {
	raw := tokenPattern.FindAllString(s, -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		out = append(out, normalizeToken(t))
	}
	return out
}

func normalizeToken(t string) string {
	return strings.ToLower(apostropheReplacer.Replace(t))
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
