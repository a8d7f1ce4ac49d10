package score

import (
	"fmt"
	"strings"
)

// WaiverStance is a journal's policy on APC waivers
type WaiverStance string

const (
	WaiverTargeted   WaiverStance = "targeted"
	WaiverAggressive WaiverStance = "aggressive"
	WaiverMinimal    WaiverStance = "minimal"
)

var waiverPercentages = map[WaiverStance]int{
	WaiverTargeted:   15,
	WaiverAggressive: 35,
	WaiverMinimal:    0,
}

// ParseWaiverStance accepts the stance names case-insensitively
func ParseWaiverStance(s string) (WaiverStance, error) {
	stance := WaiverStance(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := waiverPercentages[stance]; !ok {
		return "", fmt.Errorf("unknown waiver stance %q (want targeted, aggressive or minimal)", s)
	}
	return stance, nil
}

// WaiverRecommendation is a suggested waiver for the next campaign
type WaiverRecommendation struct {
	Stance     WaiverStance `json:"stance"`
	Percentage int          `json:"percentage"`
	Message    string       `json:"message"`
}

// RecommendWaiver suggests a waiver percentage from the journal's stance and
// the percentage granted last time (nil when there was none).
func RecommendWaiver(stance WaiverStance, last *int) WaiverRecommendation {
	rec := WaiverRecommendation{Stance: stance, Percentage: waiverPercentages[stance]}

	switch {
	case stance == WaiverMinimal && last != nil:
		rec.Message = fmt.Sprintf("No waiver is recommended (last time %d%% was granted).", *last)
	case stance == WaiverMinimal:
		rec.Message = "Minimal waiver stance; waiver not advised."
	case last != nil:
		rec.Message = fmt.Sprintf("Last waiver %d%%; suggest %d%% now.", *last, rec.Percentage)
	default:
		rec.Message = fmt.Sprintf("No previous waiver; suggest %d%% this time.", rec.Percentage)
	}

	return rec
}
