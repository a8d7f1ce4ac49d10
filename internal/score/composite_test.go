package score

import (
	"strings"
	"testing"

	"github.com/ppiankov/cfpqc/internal/model"
)

func TestCompositeScorer_Overall(t *testing.T) {
	scorer := NewCompositeScorer(DefaultWeights())

	subject := model.SubjectScore{OverallScore: 80}
	content := model.ContentScore{OverallScore: 60}

	tests := []struct {
		name  string
		extra map[string]float64
		want  float64
	}{
		// 16 + 9 + 7.5 + 7.5 + 0 - 0
		{"neutral extras", nil, 40},
		// 16 + 9 + 13.5 + 12 + 7 - 3
		{"all extras", map[string]float64{"structure": 90, "content_quality": 80, "waiver": 35, "bounce_risk": 30}, 54.5},
		// extras outside 0..100 are clamped before weighting
		{"clamped extras", map[string]float64{"structure": 500, "bounce_risk": -20}, 47.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Overall(subject, content, tt.extra); !approx(got, tt.want) {
				t.Errorf("Expected %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestCompositeScorer_Clamp(t *testing.T) {
	heavy := NewCompositeScorer(Weights{Subject: 2, BounceRiskPenalty: 5})

	if got := heavy.Overall(model.SubjectScore{OverallScore: 100}, model.ContentScore{}, nil); got != 100 {
		t.Errorf("Expected clamp to 100, got %.2f", got)
	}
	if got := heavy.Overall(model.SubjectScore{}, model.ContentScore{}, map[string]float64{"bounce_risk": 100}); got != 0 {
		t.Errorf("Expected clamp to 0, got %.2f", got)
	}
}

func TestCompositeScorer_RankStable(t *testing.T) {
	scorer := NewCompositeScorer(DefaultWeights())

	candidates := []Candidate{
		{DraftID: "a", Subject: model.SubjectScore{OverallScore: 50}},
		{DraftID: "b", Subject: model.SubjectScore{OverallScore: 90}},
		{DraftID: "c", Subject: model.SubjectScore{OverallScore: 50}},
		{DraftID: "d", Subject: model.SubjectScore{OverallScore: 90}},
	}

	ranked := scorer.Rank(candidates)

	wantOrder := []string{"b", "d", "a", "c"}
	for i, r := range ranked {
		if r.DraftID != wantOrder[i] {
			t.Errorf("Position %d: expected %s, got %s", i, wantOrder[i], r.DraftID)
		}
		if r.Rank != i+1 {
			t.Errorf("Expected rank %d, got %d", i+1, r.Rank)
		}
		if r.Explanation == "" || !strings.Contains(r.Explanation, "subject") {
			t.Errorf("Expected explanation, got %q", r.Explanation)
		}
	}

	if ranked[0].Index != 1 || ranked[1].Index != 3 {
		t.Errorf("Expected input indexes preserved, got %d and %d", ranked[0].Index, ranked[1].Index)
	}
}

func TestCompositeScorer_RankEmpty(t *testing.T) {
	scorer := NewCompositeScorer(DefaultWeights())
	if got := scorer.Rank(nil); len(got) != 0 {
		t.Errorf("Expected empty ranking, got %d rows", len(got))
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Confidence
	}{
		{100, model.ConfidenceHigh},
		{75, model.ConfidenceHigh},
		{74.9, model.ConfidenceMedium},
		{50, model.ConfidenceMedium},
		{49.9, model.ConfidenceLow},
		{0, model.ConfidenceLow},
	}
	for _, tt := range tests {
		if got := ConfidenceFor(tt.score); got != tt.want {
			t.Errorf("ConfidenceFor(%.1f): expected %s, got %s", tt.score, tt.want, got)
		}
	}
}

func TestNewRiskReport(t *testing.T) {
	var report model.QCReport
	report.Add(model.Pass("word_count"))
	report.Add(model.Fail("full_deadline", "deadline 90 days ahead"))
	report.Add(model.NeedReview("hook_quality", "needs external review"))

	risk := NewRiskReport(report, 62)

	if len(risk.Passed) != 1 || risk.Passed[0] != "word_count" {
		t.Errorf("Expected word_count passed, got %v", risk.Passed)
	}
	if len(risk.Failed) != 1 || risk.Failed[0].RuleID != "full_deadline" {
		t.Errorf("Expected full_deadline failed, got %v", risk.Failed)
	}
	if len(risk.NeedReview) != 1 {
		t.Errorf("Expected one rule awaiting review, got %v", risk.NeedReview)
	}
	if risk.Confidence != model.ConfidenceMedium {
		t.Errorf("Expected Medium confidence, got %s", risk.Confidence)
	}
	if !strings.HasPrefix(risk.Summary, "1 of 2 checks failed") {
		t.Errorf("Unexpected summary %q", risk.Summary)
	}
}

func TestRecommendWaiver(t *testing.T) {
	last := 20

	tests := []struct {
		name    string
		stance  WaiverStance
		last    *int
		percent int
		message string
	}{
		{"targeted first time", WaiverTargeted, nil, 15, "No previous waiver; suggest 15% this time."},
		{"aggressive with history", WaiverAggressive, &last, 35, "Last waiver 20%; suggest 35% now."},
		{"minimal with history", WaiverMinimal, &last, 0, "No waiver is recommended (last time 20% was granted)."},
		{"minimal first time", WaiverMinimal, nil, 0, "Minimal waiver stance; waiver not advised."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecommendWaiver(tt.stance, tt.last)
			if got.Percentage != tt.percent {
				t.Errorf("Expected %d%%, got %d%%", tt.percent, got.Percentage)
			}
			if got.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, got.Message)
			}
		})
	}
}

func TestParseWaiverStance(t *testing.T) {
	if s, err := ParseWaiverStance(" Targeted "); err != nil || s != WaiverTargeted {
		t.Errorf("Expected targeted, got %q (%v)", s, err)
	}
	if _, err := ParseWaiverStance("generous"); err == nil {
		t.Error("Expected error for unknown stance")
	}
}

func TestBounceRisk(t *testing.T) {
	tests := []struct {
		name    string
		subject model.SubjectScore
		min     float64
		max     float64
	}{
		{"calm subject", model.SubjectScore{Length: 40, CapsPercentage: 5}, 0, 1},
		{"short shouting subject", model.SubjectScore{Length: 20, CapsPercentage: 20}, 90, 97},
		{"long all caps subject", model.SubjectScore{Length: 90, CapsPercentage: 80}, 99, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BounceRisk(tt.subject)
			if got < tt.min || got > tt.max {
				t.Errorf("Expected bounce risk in [%.0f, %.0f], got %.2f", tt.min, tt.max, got)
			}
		})
	}
}
