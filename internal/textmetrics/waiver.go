package textmetrics

import (
	"math"
	"regexp"
	"strconv"
)

const waiverContextWindow = 60

var (
	percentPattern      = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)
	waiverKeywordRegexp = regexp.MustCompile(`(?i)\b(?:waiver|discount|fee waiver|apc waiver)\b`)
	waiverOfPattern     = regexp.MustCompile(`(?i)\b(?:waiver|discount)\s*(?:of\s*)?(\d{1,3}(?:\.\d+)?)\s*%`)
)

// ExtractWaiverPercentage returns the first percentage quoted within 60
// characters of a waiver or discount keyword. Falls back to the
// "waiver of N%" form. Returns false when no percentage is tied to a waiver.
func ExtractWaiverPercentage(text string) (int, bool) {
	for _, loc := range percentPattern.FindAllStringSubmatchIndex(text, -1) {
		start := loc[0] - waiverContextWindow
		if start < 0 {
			start = 0
		}
		end := loc[1] + waiverContextWindow
		if end > len(text) {
			end = len(text)
		}
		if waiverKeywordRegexp.MatchString(text[start:end]) {
			return roundPercent(text[loc[2]:loc[3]])
		}
	}

	if m := waiverOfPattern.FindStringSubmatch(text); m != nil {
		return roundPercent(m[1])
	}

	return 0, false
}

func roundPercent(s string) (int, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}
