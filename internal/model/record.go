package model

import (
	"strings"
	"time"
)

// Record flattens the report into scalar key/value pairs for storage.
// Rule results become rule.<id>.status and rule.<id>.detail.
func (r QCReport) Record() map[string]interface{} {
	rec := map[string]interface{}{
		"draft_id":     r.DraftID,
		"passed":       r.Passed,
		"word_count":   r.WordCount,
		"rule_count":   len(r.Results),
		"failed_count": len(r.Failed()),
		"need_review":  strings.Join(r.NeedReview, ","),
		"warnings":     strings.Join(r.Warnings, "; "),
	}
	if !r.EvaluatedAt.IsZero() {
		rec["evaluated_at"] = r.EvaluatedAt.UTC().Format(time.RFC3339)
	}
	for _, res := range r.Results {
		rec["rule."+res.RuleID+".status"] = string(res.Status)
		rec["rule."+res.RuleID+".detail"] = res.Detail
	}
	return rec
}

// Record flattens the subject score for storage
func (s SubjectScore) Record() map[string]interface{} {
	return map[string]interface{}{
		"subject":           s.Subject,
		"length":            s.Length,
		"caps_percentage":   s.CapsPercentage,
		"spam_hits":         strings.Join(s.SpamHits, ","),
		"length_score":      s.LengthScore,
		"caps_score":        s.CapsScore,
		"spam_score":        s.SpamScore,
		"punctuation_score": s.PunctuationScore,
		"keyword_bonus":     s.KeywordBonus,
		"overall_score":     s.OverallScore,
	}
}

// Record flattens the content score for storage
func (c ContentScore) Record() map[string]interface{} {
	return map[string]interface{}{
		"intro_word_count":      c.IntroWordCount,
		"bullets_position":      string(c.BulletsPosition),
		"cta_count":             c.CTACount,
		"external_domain_count": c.ExternalDomainCount,
		"raw_score":             c.RawScore,
		"overall_score":         c.OverallScore,
	}
}
