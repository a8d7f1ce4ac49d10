package textmetrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december|` +
	`jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

// Two literal styles only: "31 July 2025" and "July 31 2025" / "July 31, 2025".
var fullDatePattern = regexp.MustCompile(`(?i)\b(?:` +
	`(\d{1,2})\s+(` + monthAlternation + `)\.?\s+(\d{4})` +
	`|` +
	`(` + monthAlternation + `)\.?\s+(\d{1,2}),?\s+(\d{4})` +
	`)\b`)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// DateMatch is a full date found in prose together with its position
type DateMatch struct {
	Date  time.Time
	Text  string
	Start int // Byte offset of the match
	End   int
}

// FindFullDate locates the first full date in text. Only the first match is
// considered: if it names an impossible day (e.g. 32 July) there is no date.
func FindFullDate(text string) (DateMatch, bool) {
	loc := fullDatePattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return DateMatch{}, false
	}

	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	var dayStr, monthStr, yearStr string
	if group(1) != "" {
		dayStr, monthStr, yearStr = group(1), group(2), group(3)
	} else {
		monthStr, dayStr, yearStr = group(4), group(5), group(6)
	}

	date, ok := buildDate(dayStr, monthStr, yearStr)
	if !ok {
		return DateMatch{}, false
	}

	return DateMatch{
		Date:  date,
		Text:  text[loc[0]:loc[1]],
		Start: loc[0],
		End:   loc[1],
	}, true
}

// ExtractFullDate returns the first full date in text, if any
func ExtractFullDate(text string) (time.Time, bool) {
	m, ok := FindFullDate(text)
	return m.Date, ok
}

// DaysUntil is the signed number of calendar days from today to date.
// Negative values are in the past.
func DaysUntil(date, today time.Time) int {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(t).Hours() / 24)
}

func buildDate(dayStr, monthStr, yearStr string) (time.Time, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}

	key := strings.ToLower(monthStr)
	if len(key) > 3 {
		key = key[:3]
	}
	month, ok := months[key]
	if !ok {
		return time.Time{}, false
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (32 July -> 1 August); reject those
	if date.Day() != day || date.Month() != month || date.Year() != year {
		return time.Time{}, false
	}

	return date, true
}
