package score

import (
	"math"
	"reflect"
	"testing"

	"github.com/ppiankov/cfpqc/internal/lexicon"
	"github.com/ppiankov/cfpqc/internal/model"
)

func testLexicon() *lexicon.Lexicon {
	return lexicon.New([]string{"amazing", "free", "guaranteed", "exclusive"})
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestSubjectScorer_ScenarioA(t *testing.T) {
	scorer := NewSubjectScorer(lexicon.MustDefault())

	result := scorer.Score("Call for Papers: Submit by 31 July 2025")

	if result.Length != 39 {
		t.Errorf("Expected length 39, got %d", result.Length)
	}
	if result.LengthScore != SubjectLengthBonus {
		t.Errorf("Expected length score +30, got %.1f", result.LengthScore)
	}
	if result.KeywordBonus != SubjectKeywordBonus {
		t.Errorf("Expected keyword bonus +8, got %.1f", result.KeywordBonus)
	}
	if len(result.SpamHits) != 0 {
		t.Errorf("Expected no spam hits, got %v", result.SpamHits)
	}
	if result.PunctuationScore != 0 {
		t.Errorf("Expected no punctuation penalty, got %.1f", result.PunctuationScore)
	}
	if result.CapsScore != 0 {
		t.Errorf("Expected no caps penalty at %.1f%%, got %.1f", result.CapsPercentage, result.CapsScore)
	}
	// Every rescaled sub-score is at its maximum, so the bonus is clamped away
	if result.OverallScore != 100 {
		t.Errorf("Expected overall 100, got %.2f", result.OverallScore)
	}
}

func TestSubjectScorer_Blend(t *testing.T) {
	scorer := NewSubjectScorer(testLexicon())

	tests := []struct {
		name    string
		subject string
		length  float64
		caps    float64
		spam    float64
		punct   float64
		bonus   float64
		overall float64
	}{
		{
			// L=0, C=100, S=80, P=60 -> 0 + 20 + 24 + 6
			name:    "short spammy subject",
			subject: "Amazing FREE offer!!!",
			length:  -25, caps: 0, spam: -20, punct: -20, bonus: 0, overall: 50,
		},
		{
			// L=0, C=0, S=100, P=100 -> 0 + 0 + 30 + 10, plus keyword
			name:    "shouting keyword",
			subject: "CALL FOR PAPERS NOW OPEN",
			length:  -25, caps: -20, spam: 0, punct: 0, bonus: 8, overall: 48,
		},
		{
			// L=45.45, C=100, S=75, P=100 -> 18.18 + 20 + 22.5 + 10
			name:    "spam penalty capped",
			subject: "amazing free guaranteed exclusive",
			length:  0, caps: 0, spam: -25, punct: 0, bonus: 0, overall: 70.68,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.subject)
			if got.LengthScore != tt.length {
				t.Errorf("Expected length score %.1f, got %.1f (len %d)", tt.length, got.LengthScore, got.Length)
			}
			if got.CapsScore != tt.caps {
				t.Errorf("Expected caps score %.1f, got %.1f", tt.caps, got.CapsScore)
			}
			if got.SpamScore != tt.spam {
				t.Errorf("Expected spam score %.1f, got %.1f", tt.spam, got.SpamScore)
			}
			if got.PunctuationScore != tt.punct {
				t.Errorf("Expected punctuation score %.1f, got %.1f", tt.punct, got.PunctuationScore)
			}
			if got.KeywordBonus != tt.bonus {
				t.Errorf("Expected keyword bonus %.1f, got %.1f", tt.bonus, got.KeywordBonus)
			}
			if !approx(got.OverallScore, tt.overall) {
				t.Errorf("Expected overall %.2f, got %.2f", tt.overall, got.OverallScore)
			}
		})
	}
}

func TestSubjectScorer_PunctuationCap(t *testing.T) {
	scorer := NewSubjectScorer(testLexicon())
	got := scorer.Score("Why?????????? Really!!!!!!")
	if got.PunctuationScore != SubjectPunctCap {
		t.Errorf("Expected punctuation penalty capped at %.0f, got %.1f", SubjectPunctCap, got.PunctuationScore)
	}
}

func TestSubjectScorer_KeywordWhitespaceFlexible(t *testing.T) {
	scorer := NewSubjectScorer(testLexicon())
	got := scorer.Score("call   for\tpapers in geology")
	if got.KeywordBonus != SubjectKeywordBonus {
		t.Errorf("Expected keyword bonus with irregular spacing, got %.1f", got.KeywordBonus)
	}
}

func TestSubjectScorer_Bounds(t *testing.T) {
	scorer := NewSubjectScorer(testLexicon())
	for _, subject := range []string{"", "!!!!!!!!", "FREE FREE FREE AMAZING!!!!", "Call for Papers", "x"} {
		got := scorer.Score(subject)
		if got.OverallScore < 0 || got.OverallScore > 100 {
			t.Errorf("Score(%q) out of range: %f", subject, got.OverallScore)
		}
	}
}

func TestSubjectScorer_Deterministic(t *testing.T) {
	scorer := NewSubjectScorer(testLexicon())
	a := scorer.Score("Amazing call for papers!!")
	b := scorer.Score("Amazing call for papers!!")
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical scores for identical input")
	}
}

func TestSubjectScorer_Signals(t *testing.T) {
	scorer := NewSubjectScorer(testLexicon())
	got := scorer.Score("Free issue")

	types := make(map[model.SignalType]model.Signal)
	for _, s := range got.Signals {
		types[s.Type] = s
	}

	for _, want := range []model.SignalType{model.SignalSubjectLength, model.SignalSubjectCaps, model.SignalSubjectSpam, model.SignalSubjectPunctuation} {
		sig, ok := types[want]
		if !ok {
			t.Errorf("Expected %s signal", want)
			continue
		}
		if _, ok := sig.Data["formula"]; !ok {
			t.Errorf("Expected %s signal to carry its formula", want)
		}
	}
	if _, ok := types[model.SignalSubjectKeyword]; ok {
		t.Error("Expected no keyword signal without the keyword")
	}
	if types[model.SignalSubjectSpam].Severity != model.SeverityWarning {
		t.Errorf("Expected warning for a single spam hit, got %s", types[model.SignalSubjectSpam].Severity)
	}
}
