package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/cfpqc/internal/cache"
	"github.com/ppiankov/cfpqc/internal/lexicon"
	"github.com/ppiankov/cfpqc/internal/logger"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/score"
	"github.com/ppiankov/cfpqc/internal/validate"
)

// Reviewer resolves the rules the deterministic engine leaves to review
type Reviewer interface {
	Review(ctx context.Context, draft model.Draft) (*model.ToneReview, error)
}

// ReviewApplier folds a review into a report
type ReviewApplier func(report *model.QCReport, review *model.ToneReview)

// Store persists results
type Store interface {
	SaveReport(ctx context.Context, draftID string, report model.QCReport) (string, error)
	SaveSubjectScore(ctx context.Context, draftID string, s model.SubjectScore) (string, error)
	SaveContentScore(ctx context.Context, draftID string, s model.ContentScore) (string, error)
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithCache memoizes results per draft, day and configuration
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.cache, p.cacheTTL = c, ttl
	}
}

// WithStore saves every fresh result
func WithStore(s Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithReviewer enables the tone review step. apply folds the verdicts into
// the QC report; nil keeps the review alongside the report only.
func WithReviewer(r Reviewer, apply ReviewApplier) Option {
	return func(p *Pipeline) {
		p.reviewer, p.applyReview = r, apply
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithClock injects "today"
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline evaluates one draft end to end: QC checklist, subject and content
// scores, composite and risk summary, then the optional review, cache and store
type Pipeline struct {
	engine    *validate.Engine
	subject   *score.SubjectScorer
	content   *score.ContentAnalyzer
	composite *score.CompositeScorer

	cache       cache.Cache
	cacheTTL    time.Duration
	store       Store
	reviewer    Reviewer
	applyReview ReviewApplier
	log         *logger.Logger
	now         func() time.Time

	fingerprint string
}

// Result is everything known about one draft
type Result struct {
	Draft   model.Draft        `json:"draft"`
	Report  model.QCReport     `json:"report"`
	Subject model.SubjectScore `json:"subject"`
	Content model.ContentScore `json:"content"`
	Extra   map[string]float64 `json:"extra,omitempty"`
	Overall float64            `json:"overall_score"`
	Risk    score.RiskReport   `json:"risk"`
	Review  *model.ToneReview  `json:"review,omitempty"`
	Links   []model.LinkStatus `json:"links,omitempty"`
	Cached  bool               `json:"-"`
}

// Candidate returns the ranking input for this result
func (r *Result) Candidate() score.Candidate {
	return score.Candidate{
		DraftID: r.Draft.ID,
		Subject: r.Subject,
		Content: r.Content,
		Extra:   r.Extra,
	}
}

// New creates a pipeline from configuration and a loaded lexicon
func New(cfg *model.Config, lex *lexicon.Lexicon, opts ...Option) *Pipeline {
	p := &Pipeline{
		subject:   score.NewSubjectScorer(lex),
		content:   score.NewContentAnalyzer(),
		composite: score.NewCompositeScorer(score.WeightsFromConfig(cfg.Weights)),
		log:       logger.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.engine = validate.NewEngine(lex,
		validate.WithClock(p.now),
		validate.WithRulesConfig(cfg.Rules),
		validate.WithExceptions(cfg.Lexicon.Exceptions),
	)

	p.fingerprint = cache.Fingerprint(struct {
		Rules      model.RulesConfig
		Weights    model.WeightsConfig
		Exceptions []string
		Lexicon    []string
		Review     bool
	}{cfg.Rules, cfg.Weights, cfg.Lexicon.Exceptions, lex.Words(), p.reviewer != nil})

	return p
}

// Composite returns the scorer used for ranking
func (p *Pipeline) Composite() *score.CompositeScorer {
	return p.composite
}

// Process evaluates a draft. Review and store failures are logged and
// recorded as report warnings; they never discard the deterministic result.
func (p *Pipeline) Process(ctx context.Context, draft model.Draft) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cache.ReportKey(draft, p.now(), p.fingerprint)
	if res, ok := p.cached(key); ok {
		p.log.Debug("cache hit", "draft", draft.ID)
		return res, nil
	}

	res := p.Evaluate(draft)

	if p.reviewer != nil {
		review, err := p.reviewer.Review(ctx, draft)
		if err != nil {
			p.log.Warn("tone review failed", "draft", draft.ID, "error", err)
			res.Report.Warnings = append(res.Report.Warnings, fmt.Sprintf("tone review unavailable: %v", err))
		} else {
			res.Review = review
			if p.applyReview != nil {
				p.applyReview(&res.Report, review)
				res.Risk = score.NewRiskReport(res.Report, res.Overall)
			}
		}
	}

	if p.store != nil {
		if err := p.save(ctx, res); err != nil {
			p.log.Warn("store failed", "draft", draft.ID, "error", err)
			res.Report.Warnings = append(res.Report.Warnings, fmt.Sprintf("result not stored: %v", err))
		}
	}

	if p.cache != nil {
		if data, err := json.Marshal(res); err == nil {
			if err := p.cache.Set(key, data, p.cacheTTL); err != nil {
				p.log.Debug("cache write failed", "error", err)
			}
		}
	}

	return res, nil
}

// Evaluate runs only the deterministic steps
func (p *Pipeline) Evaluate(draft model.Draft) *Result {
	report := p.engine.Run(draft, draft.SubmitURL)
	report.DraftID = draft.ID

	subject := p.subject.Score(draft.SubjectLine)
	content := p.content.Analyze(draft.Body)
	extra := Extras(draft, subject)
	overall := p.composite.Overall(subject, content, extra)

	return &Result{
		Draft:   draft,
		Report:  report,
		Subject: subject,
		Content: content,
		Extra:   extra,
		Overall: overall,
		Risk:    score.NewRiskReport(report, overall),
	}
}

// Extras derives the composite sub-scores known without an outside review:
// the offered waiver and the subject's bounce risk. The others stay neutral.
func Extras(draft model.Draft, subject model.SubjectScore) map[string]float64 {
	waiver := 0.0
	if draft.WaiverAvailable {
		waiver = float64(draft.WaiverPercentage)
	}
	return map[string]float64{
		score.ExtraWaiver:     waiver,
		score.ExtraBounceRisk: score.BounceRisk(subject),
	}
}

func (p *Pipeline) cached(key string) (*Result, bool) {
	if p.cache == nil {
		return nil, false
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		_ = p.cache.Delete(key)
		return nil, false
	}
	res.Cached = true
	return &res, true
}

func (p *Pipeline) save(ctx context.Context, res *Result) error {
	id := res.Draft.ID
	if _, err := p.store.SaveReport(ctx, id, res.Report); err != nil {
		return err
	}
	if _, err := p.store.SaveSubjectScore(ctx, id, res.Subject); err != nil {
		return err
	}
	if _, err := p.store.SaveContentScore(ctx, id, res.Content); err != nil {
		return err
	}
	return nil
}
