package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/osteele/liquid"

	"github.com/ppiankov/cfpqc/internal/extract"
	"github.com/ppiankov/cfpqc/internal/logger"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/textmetrics"
	"github.com/ppiankov/cfpqc/internal/validate"
)

// AuthorPerks are the author-centric benefits a balanced email names once
var AuthorPerks = []string{
	"visibility", "reach", "discoverability", "impact", "citation",
	"readership", "author rights", "copyright retention",
}

// metricPattern matches concrete figures: impact factor, percentages, review
// turnaround, median time to decision, h-index and SNIP
var metricPattern = regexp.MustCompile(`(?i)impact\s+factor\s*\d+(?:\.\d+)?` +
	`|\b\d+\s*%` +
	`|\b\d+\s*(?:days|hours)\b` +
	`|\b\d+\s*(?:day|hour)\s*review\b` +
	`|\bmedian\s+time\s+to\s+decision` +
	`|\b(?:h\s*-?index|snip)\s*\d+(?:\.\d+)?`)

// verdict keys in the reviewer's JSON answer, mapped to rule ids
var verdictRules = []struct {
	key  string
	rule string
}{
	{"hook_ok", validate.RuleHookQuality},
	{"balanced_ok", validate.RuleBalancedBenefit},
	{"tone_ok", validate.RuleCollegialTone},
}

const tonePrompt = `Review this call-for-papers email{% if journal != "" %} for {{ journal }}{% endif %}.
1. Do the first 40 words clearly state the research field, the journal name AND one tangible benefit (e.g. waiver %, visibility)? Key "hook_ok".
2. Does the whole body mention exactly one author-centric perk AND exactly one concrete metric (impact factor, waiver %, review days)? Key "balanced_ok".
3. Is the tone collegial (no commands like {{ hard_sell }}, no ALL-CAPS, no exclamation marks)? Key "tone_ok".
Return a JSON object with those three boolean keys and a "reasons" object giving a short reason for every false key.

DRAFT:
------
{{ email }}
------
JSON:`

// Precheck is the local knockout applied before any model call
type Precheck struct {
	Perks    []string `json:"perks"`
	Metrics  []string `json:"metrics"`
	Balanced bool     `json:"balanced"`
	Tone     bool     `json:"tone"`
	ToneHint string   `json:"tone_hint,omitempty"`
}

// RunPrecheck counts perks and metrics and looks for blatant tone problems
func RunPrecheck(text string) Precheck {
	lower := strings.ToLower(text)

	var p Precheck
	for _, perk := range AuthorPerks {
		if strings.Contains(lower, perk) {
			p.Perks = append(p.Perks, perk)
		}
	}
	p.Metrics = metricPattern.FindAllString(text, -1)
	p.Balanced = len(p.Perks) == 1 && len(p.Metrics) == 1

	p.Tone = true
	for _, phrase := range validate.HardSellPhrases {
		if strings.Contains(lower, phrase) {
			p.Tone, p.ToneHint = false, fmt.Sprintf("hard-sell phrase %q", phrase)
			break
		}
	}
	switch {
	case !p.Tone:
	case strings.Contains(text, "!"):
		p.Tone, p.ToneHint = false, "exclamation mark"
	case textmetrics.IsAllCaps(text):
		p.Tone, p.ToneHint = false, "all caps"
	}

	return p
}

// ToneReviewer resolves the hook, balance and tone rules with a Generator
type ToneReviewer struct {
	generator Generator
	model     string
	template  *liquid.Template
	log       *logger.Logger
}

// NewToneReviewer prepares the prompt template. modelName is recorded on
// every review for traceability.
func NewToneReviewer(generator Generator, modelName string, log *logger.Logger) (*ToneReviewer, error) {
	if generator == nil {
		return nil, ErrNoGenerator
	}
	if log == nil {
		log = logger.NewNop()
	}

	tpl, err := liquid.NewEngine().ParseString(tonePrompt)
	if err != nil {
		return nil, fmt.Errorf("parse tone prompt: %w", err)
	}

	return &ToneReviewer{generator: generator, model: modelName, template: tpl, log: log}, nil
}

// Prompt renders the review prompt for a draft's letter text
func (r *ToneReviewer) Prompt(draft model.Draft, text string) (string, error) {
	out, err := r.template.RenderString(liquid.Bindings{
		"journal":   draft.JournalName,
		"hard_sell": `"` + strings.Join(validate.HardSellPhrases, `", "`) + `"`,
		"email":     text,
	})
	if err != nil {
		return "", fmt.Errorf("render tone prompt: %w", err)
	}
	return out, nil
}

// Review judges a draft. A failing precheck decides without calling the
// model; hook quality then counts as failed. An answer that is not valid
// JSON fails all three rules. Only transport errors are returned.
func (r *ToneReviewer) Review(ctx context.Context, draft model.Draft) (*model.ToneReview, error) {
	text := letterText(draft)
	review := &model.ToneReview{
		Reviewer: "precheck",
		Verdicts: make(map[string]bool, len(verdictRules)),
		Reasons:  make(map[string]string),
	}

	pre := RunPrecheck(text)
	if !pre.Balanced || !pre.Tone {
		review.Verdicts[validate.RuleBalancedBenefit] = pre.Balanced
		review.Verdicts[validate.RuleCollegialTone] = pre.Tone
		review.Verdicts[validate.RuleHookQuality] = false
		if !pre.Balanced {
			review.Reasons[validate.RuleBalancedBenefit] = fmt.Sprintf("%d author perks and %d metrics, want exactly one of each", len(pre.Perks), len(pre.Metrics))
		}
		if !pre.Tone {
			review.Reasons[validate.RuleCollegialTone] = pre.ToneHint
		}
		review.Reasons[validate.RuleHookQuality] = "not assessed: local precheck failed"
		r.log.Debug("tone precheck failed", "draft", draft.ID, "balanced", pre.Balanced, "tone", pre.Tone)
		return review, nil
	}

	prompt, err := r.Prompt(draft, text)
	if err != nil {
		return nil, err
	}

	answer, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("tone review: %w", err)
	}

	review.Reviewer = r.generator.Name()
	review.Model = r.model

	verdicts, reasons, err := parseVerdict(answer)
	if err != nil {
		r.log.Warn("unparseable tone review", "draft", draft.ID, "error", err)
		review.Warnings = append(review.Warnings, "reviewer answer was not valid JSON")
		for _, v := range verdictRules {
			review.Verdicts[v.rule] = false
			review.Reasons[v.rule] = "reviewer answer was not valid JSON"
		}
		return review, nil
	}

	for _, v := range verdictRules {
		review.Verdicts[v.rule] = verdicts[v.key]
		if reason := reasons[v.key]; reason != "" && !verdicts[v.key] {
			review.Reasons[v.rule] = reason
		}
	}
	return review, nil
}

// ApplyReview replaces the need_review results of report with the review's
// verdicts. Rules the report does not carry are ignored.
func ApplyReview(report *model.QCReport, review *model.ToneReview) {
	if report == nil || review == nil {
		return
	}
	for _, v := range verdictRules {
		ok, decided := review.Verdicts[v.rule]
		if !decided {
			continue
		}
		if ok {
			report.Replace(model.Pass(v.rule))
			continue
		}
		reason := review.Reasons[v.rule]
		if reason == "" {
			reason = "rejected by " + review.Reviewer
		}
		report.Replace(model.Fail(v.rule, reason))
	}
}

// letterText is the plain letter body without subject, salutation or
// signature; drafts that do not follow the letter shape are used whole
func letterText(draft model.Draft) string {
	plain := extract.PlainText(draft.Body)
	if core := extract.CoreContent(plain); core != "" {
		return core
	}
	return strings.TrimSpace(plain)
}

// parseVerdict reads the first JSON object in answer. Missing keys and
// non-boolean values count as false.
func parseVerdict(answer string) (map[string]bool, map[string]string, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start == -1 || end < start {
		return nil, nil, fmt.Errorf("no JSON object in answer")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(answer[start:end+1]), &raw); err != nil {
		return nil, nil, fmt.Errorf("unmarshal verdict: %w", err)
	}

	verdicts := make(map[string]bool)
	for _, v := range verdictRules {
		var b bool
		if msg, ok := raw[v.key]; ok && json.Unmarshal(msg, &b) == nil {
			verdicts[v.key] = b
		}
	}

	reasons := make(map[string]string)
	if msg, ok := raw["reasons"]; ok {
		_ = json.Unmarshal(msg, &reasons)
	}

	return verdicts, reasons, nil
}
