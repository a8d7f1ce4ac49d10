package score

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/cfpqc/internal/lexicon"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/textmetrics"
)

// Subject line scoring constants
const (
	SubjectLengthMin     = 35
	SubjectLengthMax     = 55
	SubjectLengthShort   = 30
	SubjectLengthLong    = 60
	SubjectLengthBonus   = 30.0
	SubjectLengthPenalty = -25.0
	SubjectCapsThreshold = 30.0
	SubjectCapsPenalty   = -20.0
	SubjectSpamPerHit    = -10.0
	SubjectSpamCap       = -25.0
	SubjectPunctPerMark  = -10.0
	SubjectPunctCap      = -50.0
	SubjectKeywordBonus  = 8.0

	// The spam sub-score is rescaled over the uncapped range
	subjectSpamRangeFloor = -100.0
)

// Blend weights for the rescaled subject sub-scores
const (
	SubjectWeightLength      = 0.4
	SubjectWeightCaps        = 0.2
	SubjectWeightSpam        = 0.3
	SubjectWeightPunctuation = 0.1
)

var callForPapersPattern = regexp.MustCompile(`(?i)\bcall\s+for\s+papers\b`)

// SubjectScorer scores subject lines against a spam lexicon
type SubjectScorer struct {
	lexicon *lexicon.Lexicon
}

// NewSubjectScorer creates a subject scorer backed by lex
func NewSubjectScorer(lex *lexicon.Lexicon) *SubjectScorer {
	return &SubjectScorer{lexicon: lex}
}

// Score calculates the subject score and its diagnostic signals
func (s *SubjectScorer) Score(subject string) model.SubjectScore {
	var signals []model.Signal

	// 1. Length (-25..30)
	length := textmetrics.CharCount(subject)
	lengthScore, lengthSignal := s.scoreLength(length)
	signals = append(signals, lengthSignal)

	// 2. Capitalization (-20..0)
	caps := textmetrics.CapsPercentage(subject)
	capsScore, capsSignal := s.scoreCaps(caps)
	signals = append(signals, capsSignal)

	// 3. Spam vocabulary (-25..0)
	hits := s.lexicon.FindHits(subject)
	spamScore, spamSignal := s.scoreSpam(hits)
	signals = append(signals, spamSignal)

	// 4. Punctuation (-50..0)
	excess := textmetrics.PunctuationExcess(subject)
	punctScore, punctSignal := s.scorePunctuation(excess)
	signals = append(signals, punctSignal)

	// 5. Keyword bonus
	bonus := 0.0
	if callForPapersPattern.MatchString(subject) {
		bonus = SubjectKeywordBonus
		signals = append(signals, model.Signal{
			Type:        model.SignalSubjectKeyword,
			Severity:    model.SeverityInfo,
			Description: "Subject names the call for papers",
			Data: map[string]interface{}{
				"bonus":   bonus,
				"formula": "+8 if subject matches /call\\s+for\\s+papers/i",
			},
		})
	}

	blended := SubjectWeightLength*rescale(lengthScore, SubjectLengthPenalty, SubjectLengthBonus) +
		SubjectWeightCaps*rescale(capsScore, SubjectCapsPenalty, 0) +
		SubjectWeightSpam*rescale(spamScore, subjectSpamRangeFloor, 0) +
		SubjectWeightPunctuation*rescale(punctScore, SubjectPunctCap, 0)

	return model.SubjectScore{
		Subject:          subject,
		Length:           length,
		CapsPercentage:   caps,
		SpamHits:         hits,
		LengthScore:      lengthScore,
		CapsScore:        capsScore,
		SpamScore:        spamScore,
		PunctuationScore: punctScore,
		KeywordBonus:     bonus,
		OverallScore:     clamp(blended+bonus, 0, 100),
		Signals:          signals,
	}
}

func (s *SubjectScorer) scoreLength(length int) (float64, model.Signal) {
	score := 0.0
	severity := model.SeverityWarning

	switch {
	case length >= SubjectLengthMin && length <= SubjectLengthMax:
		score = SubjectLengthBonus
		severity = model.SeverityInfo
	case length < SubjectLengthShort || length > SubjectLengthLong:
		score = SubjectLengthPenalty
		severity = model.SeverityCritical
	}

	return score, model.Signal{
		Type:        model.SignalSubjectLength,
		Severity:    severity,
		Description: fmt.Sprintf("Subject length: %d characters", length),
		Data: map[string]interface{}{
			"length":  length,
			"score":   score,
			"formula": "+30 if 35<=len<=55; -25 if len<30 or len>60; else 0",
		},
	}
}

func (s *SubjectScorer) scoreCaps(caps float64) (float64, model.Signal) {
	score := 0.0
	severity := model.SeverityInfo
	if caps > SubjectCapsThreshold {
		score = SubjectCapsPenalty
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalSubjectCaps,
		Severity:    severity,
		Description: fmt.Sprintf("Capital letters: %.1f%%", caps),
		Data: map[string]interface{}{
			"caps_percentage": caps,
			"score":           score,
			"formula":         "-20 if caps_percentage > 30 else 0",
		},
	}
}

func (s *SubjectScorer) scoreSpam(hits []string) (float64, model.Signal) {
	score := math.Max(SubjectSpamPerHit*float64(len(hits)), SubjectSpamCap)

	severity := model.SeverityInfo
	if len(hits) > 1 {
		severity = model.SeverityCritical
	} else if len(hits) == 1 {
		severity = model.SeverityWarning
	}

	description := "No spam vocabulary"
	if len(hits) > 0 {
		description = fmt.Sprintf("Spam vocabulary: %s", strings.Join(hits, ", "))
	}

	return score, model.Signal{
		Type:        model.SignalSubjectSpam,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"hits":    len(hits),
			"score":   score,
			"formula": "max(-10 * distinct_hits, -25)",
		},
	}
}

func (s *SubjectScorer) scorePunctuation(excess int) (float64, model.Signal) {
	score := math.Max(SubjectPunctPerMark*float64(excess), SubjectPunctCap)

	severity := model.SeverityInfo
	if excess > 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalSubjectPunctuation,
		Severity:    severity,
		Description: fmt.Sprintf("Excess !/? marks: %d", excess),
		Data: map[string]interface{}{
			"excess":  excess,
			"score":   score,
			"formula": "max(-10 * marks_beyond_first, -50)",
		},
	}
}

// rescale maps v from [lo, hi] onto [0, 100]
func rescale(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return clamp((v-lo)/(hi-lo)*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
