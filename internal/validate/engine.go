// Package validate runs the compliance checklist over a CFP draft.
//
// Every rule is a pure function of the draft, the configured thresholds, the
// injected lexicon and "today". Rules never return errors: anything a rule
// cannot decide is reported as a failure with a reason, and a rule that
// panics is converted into a failed result so a report is always complete.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/cfpqc/internal/extract"
	"github.com/ppiankov/cfpqc/internal/lexicon"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/textmetrics"
)

// MalformedWarning is recorded when the body markup had to be stripped best-effort
const MalformedWarning = "malformed html: structure derived from stripped text"

// Rule is one named check
type Rule struct {
	ID    string
	Check func(d *draftContext) model.RuleResult
}

// Option configures an Engine
type Option func(*Engine)

// WithClock injects the source of "today" used by the deadline rule
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRulesConfig overrides the rule thresholds
func WithRulesConfig(cfg model.RulesConfig) Option {
	return func(e *Engine) {
		e.config = cfg
		e.credibility = NewCredibilityClassifier(&e.config)
	}
}

// WithExceptions sets the words the spam density rule ignores
func WithExceptions(words []string) Option {
	return func(e *Engine) {
		e.exceptions = append([]string(nil), words...)
	}
}

// Engine evaluates the compliance rules in a fixed order
type Engine struct {
	lexicon     *lexicon.Lexicon
	hype        *lexicon.Lexicon
	hardSell    *lexicon.Lexicon
	config      model.RulesConfig
	exceptions  []string
	credibility *CredibilityClassifier
	now         func() time.Time
	rules       []Rule
}

// NewEngine creates an engine over the given spam lexicon
func NewEngine(lex *lexicon.Lexicon, opts ...Option) *Engine {
	defaults := model.DefaultConfig()

	e := &Engine{
		lexicon:    lex,
		hype:       lexicon.New(HypeWords),
		hardSell:   lexicon.New(HardSellPhrases),
		config:     defaults.Rules,
		exceptions: defaults.Lexicon.Exceptions,
		now:        time.Now,
	}
	e.credibility = NewCredibilityClassifier(&e.config)

	for _, opt := range opts {
		opt(e)
	}

	e.rules = e.buildRules()
	return e
}

// RuleIDs lists the rule ids in evaluation order
func (e *Engine) RuleIDs() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.ID
	}
	return ids
}

// Run evaluates every rule against draft. submitURL overrides the draft's
// own submit URL when non-empty. The draft is never modified.
func (e *Engine) Run(draft model.Draft, submitURL string) model.QCReport {
	if submitURL == "" {
		submitURL = draft.SubmitURL
	}

	d := e.newDraftContext(draft, submitURL)

	report := model.QCReport{
		DraftID:     draft.ID,
		WordCount:   d.words,
		EvaluatedAt: d.today,
	}
	if d.structure.Malformed {
		report.Warnings = append(report.Warnings, MalformedWarning)
	}
	if strings.TrimSpace(draft.Body) == "" {
		report.Warnings = append(report.Warnings, "empty body")
	}

	for _, rule := range e.rules {
		report.Add(e.evaluate(rule, d))
	}

	return report
}

// evaluate runs one rule, converting a panic into a failed result
func (e *Engine) evaluate(rule Rule, d *draftContext) (res model.RuleResult) {
	defer func() {
		if r := recover(); r != nil {
			res = model.Fail(rule.ID, fmt.Sprintf("rule error: %v", r))
		}
	}()

	res = rule.Check(d)
	res.RuleID = rule.ID
	if res.Status == model.StatusFail && res.Detail == "" {
		res.Detail = "rule failed"
	}
	return res
}

// draftContext is the per-run derived view of a draft shared by the rules
type draftContext struct {
	draft     model.Draft
	submitURL string
	text      string // Body rendered as plain text
	lower     string // Lower-cased text with whitespace runs collapsed
	prose     string // lower without URLs, for phrase rules
	words     int
	links     []extract.Link
	structure extract.Structure
	today     time.Time
}

func (e *Engine) newDraftContext(draft model.Draft, submitURL string) *draftContext {
	text := extract.PlainText(draft.Body)
	lower := strings.ToLower(textmetrics.Normalize(text))
	return &draftContext{
		draft:     draft,
		submitURL: submitURL,
		text:      text,
		lower:     lower,
		prose:     extract.StripURLs(lower),
		words:     textmetrics.WordCount(text),
		links:     extract.Links(draft.Body),
		structure: extract.Parse(draft.Body),
		today:     e.now(),
	}
}
