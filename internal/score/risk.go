package score

import (
	"fmt"

	"github.com/ppiankov/cfpqc/internal/model"
)

// RiskReport summarizes a QC report next to the draft's composite score
type RiskReport struct {
	DraftID    string             `json:"draft_id,omitempty"`
	Overall    float64            `json:"overall_score"`
	Confidence model.Confidence   `json:"confidence"`
	Passed     []string           `json:"passed"`
	Failed     []model.RuleResult `json:"failed"`
	NeedReview []string           `json:"need_review,omitempty"`
	Summary    string             `json:"summary"`
}

// NewRiskReport builds a risk report from a QC report and a composite score
func NewRiskReport(report model.QCReport, overall float64) RiskReport {
	risk := RiskReport{
		DraftID:    report.DraftID,
		Overall:    overall,
		Confidence: ConfidenceFor(overall),
		Failed:     report.Failed(),
		NeedReview: report.NeedReview,
	}

	for _, res := range report.Results {
		if res.Status == model.StatusPass {
			risk.Passed = append(risk.Passed, res.RuleID)
		}
	}

	decided := len(risk.Passed) + len(risk.Failed)
	switch {
	case len(risk.Failed) == 0:
		risk.Summary = fmt.Sprintf("All %d checks passed; %s confidence (%.1f)", decided, risk.Confidence, overall)
	default:
		risk.Summary = fmt.Sprintf("%d of %d checks failed; %s confidence (%.1f)", len(risk.Failed), decided, risk.Confidence, overall)
	}

	return risk
}
