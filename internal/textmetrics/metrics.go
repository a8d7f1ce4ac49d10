// Package textmetrics holds the low-level measurements every rule and scorer
// builds on: word and character counts, capitalization, punctuation and
// dates embedded in prose.
package textmetrics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	wordPattern       = regexp.MustCompile(`[A-Za-z']*[A-Za-z][A-Za-z']*`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	nbspReplacer      = strings.NewReplacer("&nbsp;", " ", "&#160;", " ", "\u00a0", " ")
)

// Words returns the word tokens of text. Tokens made only of punctuation or
// apostrophes are not words.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// WordCount counts word tokens. WordCount("") == 0.
func WordCount(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// Normalize collapses whitespace runs (including non-breaking spaces) to a
// single space and trims the result.
func Normalize(text string) string {
	text = nbspReplacer.Replace(text)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// CharCount is the rune length of the normalized text
func CharCount(text string) int {
	return utf8.RuneCountInString(Normalize(text))
}

// CapsPercentage returns 100 * uppercase letters / all characters of the
// normalized text. Spaces and punctuation count in the denominator.
// Empty text yields 0.
func CapsPercentage(text string) float64 {
	norm := Normalize(text)
	total := utf8.RuneCountInString(norm)
	if total == 0 {
		return 0
	}

	upper := 0
	for _, r := range norm {
		if unicode.IsLetter(r) && unicode.IsUpper(r) {
			upper++
		}
	}

	return 100 * float64(upper) / float64(total)
}

// PunctuationExcess counts '!' and '?' marks beyond the first one
func PunctuationExcess(text string) int {
	n := strings.Count(text, "!") + strings.Count(text, "?")
	if n <= 1 {
		return 0
	}
	return n - 1
}

// IsAllCaps reports whether every letter in text is uppercase.
// Text without letters is not all caps.
func IsAllCaps(text string) bool {
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return letters > 0
}

// CountPhrase counts case-insensitive, non-overlapping occurrences of phrase
func CountPhrase(text, phrase string) int {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(phrase))
}
