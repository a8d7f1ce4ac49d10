package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/cfpqc/internal/model"
)

// Keys of the externally supplied sub-scores, each on a 0..100 scale
const (
	ExtraStructure      = "structure"
	ExtraContentQuality = "content_quality"
	ExtraWaiver         = "waiver"      // Offered waiver percentage
	ExtraBounceRisk     = "bounce_risk" // Subtracted
)

// NeutralExtras are used for sub-scores the caller did not supply
var NeutralExtras = map[string]float64{
	ExtraStructure:      50,
	ExtraContentQuality: 50,
	ExtraWaiver:         0,
	ExtraBounceRisk:     0,
}

// Confidence thresholds on the composite score
const (
	ConfidenceHighMin   = 75.0
	ConfidenceMediumMin = 50.0
)

// Weights tune the composite blend
type Weights struct {
	Subject           float64
	Content           float64
	Structure         float64
	ContentQuality    float64
	Waiver            float64
	BounceRiskPenalty float64
}

// DefaultWeights returns the standard blend
func DefaultWeights() Weights {
	return WeightsFromConfig(model.DefaultConfig().Weights)
}

// WeightsFromConfig converts configured weights
func WeightsFromConfig(c model.WeightsConfig) Weights {
	return Weights{
		Subject:           c.Subject,
		Content:           c.Content,
		Structure:         c.Structure,
		ContentQuality:    c.ContentQuality,
		Waiver:            c.Waiver,
		BounceRiskPenalty: c.BounceRiskPenalty,
	}
}

// CompositeScorer blends subject, content and external sub-scores
type CompositeScorer struct {
	weights Weights
}

// NewCompositeScorer creates a composite scorer
func NewCompositeScorer(w Weights) *CompositeScorer {
	return &CompositeScorer{weights: w}
}

// Weights returns the scorer's weights
func (c *CompositeScorer) Weights() Weights {
	return c.weights
}

// Overall returns the weighted composite in [0, 100]. Missing extras take
// their NeutralExtras value.
func (c *CompositeScorer) Overall(subject model.SubjectScore, content model.ContentScore, extra map[string]float64) float64 {
	total, _ := c.breakdown(subject, content, extra)
	return total
}

// Candidate is one draft's inputs to ranking
type Candidate struct {
	DraftID string
	Subject model.SubjectScore
	Content model.ContentScore
	Extra   map[string]float64
}

// Rank orders candidates by composite score, highest first. Ties keep input
// order. Ranks are 1-based.
func (c *CompositeScorer) Rank(candidates []Candidate) []model.RankedDraft {
	ranked := make([]model.RankedDraft, len(candidates))
	for i, cand := range candidates {
		overall, explanation := c.breakdown(cand.Subject, cand.Content, cand.Extra)
		ranked[i] = model.RankedDraft{
			Index:       i,
			DraftID:     cand.DraftID,
			Subject:     cand.Subject,
			Content:     cand.Content,
			Overall:     overall,
			Confidence:  ConfidenceFor(overall),
			Explanation: explanation,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Overall > ranked[j].Overall
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

// ConfidenceFor buckets a composite score
func ConfidenceFor(overall float64) model.Confidence {
	switch {
	case overall >= ConfidenceHighMin:
		return model.ConfidenceHigh
	case overall >= ConfidenceMediumMin:
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

func (c *CompositeScorer) breakdown(subject model.SubjectScore, content model.ContentScore, extra map[string]float64) (float64, string) {
	w := c.weights
	structure := extraValue(extra, ExtraStructure)
	quality := extraValue(extra, ExtraContentQuality)
	waiver := extraValue(extra, ExtraWaiver)
	bounce := extraValue(extra, ExtraBounceRisk)

	total := w.Subject*subject.OverallScore +
		w.Content*content.OverallScore +
		w.Structure*structure +
		w.ContentQuality*quality +
		w.Waiver*waiver -
		w.BounceRiskPenalty*bounce
	total = clamp(total, 0, 100)

	parts := []string{
		fmt.Sprintf("subject %.1f×%.2f", subject.OverallScore, w.Subject),
		fmt.Sprintf("content %.1f×%.2f", content.OverallScore, w.Content),
		fmt.Sprintf("structure %.1f×%.2f", structure, w.Structure),
		fmt.Sprintf("quality %.1f×%.2f", quality, w.ContentQuality),
		fmt.Sprintf("waiver %.1f×%.2f", waiver, w.Waiver),
	}
	explanation := strings.Join(parts, " + ") +
		fmt.Sprintf(" - bounce %.1f×%.2f = %.1f", bounce, w.BounceRiskPenalty, total)

	return total, explanation
}

func extraValue(extra map[string]float64, key string) float64 {
	if v, ok := extra[key]; ok {
		return clamp(v, 0, 100)
	}
	return NeutralExtras[key]
}
