package model

import "time"

// RuleStatus is the outcome class of a single rule
type RuleStatus string

const (
	StatusPass       RuleStatus = "pass"
	StatusFail       RuleStatus = "fail"
	StatusNeedReview RuleStatus = "need_review" // Not decidable by keyword rules
)

// RuleResult is the outcome of one named rule
type RuleResult struct {
	RuleID string     `json:"rule_id"`
	Status RuleStatus `json:"status"`
	Passed bool       `json:"passed"`
	Detail string     `json:"detail,omitempty"` // Required when the rule failed
}

// Pass builds a passing result
func Pass(id string) RuleResult {
	return RuleResult{RuleID: id, Status: StatusPass, Passed: true}
}

// Fail builds a failing result with a reason
func Fail(id, detail string) RuleResult {
	if detail == "" {
		detail = "rule failed"
	}
	return RuleResult{RuleID: id, Status: StatusFail, Passed: false, Detail: detail}
}

// NeedReview builds a result that defers judgment to an external reviewer
func NeedReview(id, detail string) RuleResult {
	return RuleResult{RuleID: id, Status: StatusNeedReview, Detail: detail}
}

// QCReport aggregates every rule result for one draft.
// Results keep evaluation order so checklists diff cleanly.
type QCReport struct {
	DraftID     string       `json:"draft_id,omitempty"`
	Results     []RuleResult `json:"results"`
	Passed      bool         `json:"passed"`
	NeedReview  []string     `json:"need_review,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"` // Non-fatal input problems
	WordCount   int          `json:"word_count"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
}

// Add appends a result and keeps the aggregate fields current
func (r *QCReport) Add(res RuleResult) {
	r.Results = append(r.Results, res)
	r.recompute()
}

// Replace swaps the result for an existing rule id (used when a reviewer
// resolves a need_review rule). Returns false if the id is unknown.
func (r *QCReport) Replace(res RuleResult) bool {
	for i := range r.Results {
		if r.Results[i].RuleID == res.RuleID {
			r.Results[i] = res
			r.recompute()
			return true
		}
	}
	return false
}

// Result returns the result for a rule id
func (r *QCReport) Result(id string) (RuleResult, bool) {
	for _, res := range r.Results {
		if res.RuleID == id {
			return res, true
		}
	}
	return RuleResult{}, false
}

// Failed returns the failing results in order
func (r *QCReport) Failed() []RuleResult {
	var out []RuleResult
	for _, res := range r.Results {
		if res.Status == StatusFail {
			out = append(out, res)
		}
	}
	return out
}

func (r *QCReport) recompute() {
	passed := true
	var review []string
	for _, res := range r.Results {
		switch res.Status {
		case StatusFail:
			passed = false
		case StatusNeedReview:
			review = append(review, res.RuleID)
		}
	}
	r.Passed = passed
	r.NeedReview = review
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Formula inputs and results
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalSubjectLength      SignalType = "subject_length"
	SignalSubjectCaps        SignalType = "subject_caps"
	SignalSubjectSpam        SignalType = "subject_spam"
	SignalSubjectPunctuation SignalType = "subject_punctuation"
	SignalSubjectKeyword     SignalType = "subject_keyword"
	SignalIntroHook          SignalType = "intro_hook"
	SignalBullets            SignalType = "bullets"
	SignalCTA                SignalType = "cta"
	SignalExternalDomains    SignalType = "external_domains"
	SignalMalformedInput     SignalType = "malformed_input"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// ToneReview holds an external reviewer's verdict on the undecidable rules.
// It is kept apart from the deterministic results.
type ToneReview struct {
	Reviewer string            `json:"reviewer"`
	Model    string            `json:"model,omitempty"`
	Verdicts map[string]bool   `json:"verdicts"`
	Reasons  map[string]string `json:"reasons,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}
