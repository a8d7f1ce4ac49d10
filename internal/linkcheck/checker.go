// Package linkcheck verifies that a draft's submit and credibility links
// resolve. It is a network step outside the deterministic rule engine: its
// findings are reported next to a QC report, never folded into it.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/cfpqc/internal/extract"
	"github.com/ppiankov/cfpqc/internal/logger"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/validate"
	"github.com/ppiankov/cfpqc/internal/worker"
)

const maxRetries = 3

// sleepFunc is the sleep between retries (injectable for tests)
var sleepFunc = time.Sleep

// Target is one URL to check
type Target struct {
	URL  string
	Role model.LinkRole
}

// Checker checks links concurrently with per-domain pacing
type Checker struct {
	httpClient *http.Client
	workers    int
	userAgent  string
	limiter    *worker.Limiter
	robots     *RobotsChecker // nil when robots.txt is ignored
	log        *logger.Logger
}

// New creates a checker from configuration
func New(cfg model.LinkCheckConfig, workers int, log *logger.Logger) *Checker {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = logger.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	c := &Checker{
		httpClient: client,
		workers:    workers,
		userAgent:  cfg.UserAgent,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		log:        log,
	}
	if cfg.RespectRobots {
		c.robots = NewRobotsChecker(cfg.UserAgent, client)
	}
	return c
}

// TargetsFor lists the distinct URLs of a draft worth checking: the submit
// URL, the credibility links and any other call-to-action links
func TargetsFor(draft model.Draft, classifier *validate.CredibilityClassifier) []Target {
	if classifier == nil {
		classifier = validate.NewCredibilityClassifier(nil)
	}
	classifier = classifier.WithListed(draft.CredibilityURLs)

	seen := make(map[string]bool)
	var targets []Target
	add := func(u string, role model.LinkRole) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		targets = append(targets, Target{URL: u, Role: role})
	}

	add(draft.SubmitURL, model.LinkRoleSubmit)
	for _, l := range extract.WebLinks(extract.Links(draft.Body)) {
		if l.Kind != extract.LinkCTA {
			continue
		}
		if classifier.IsCredibility(l.URL, draft.SubmitURL) {
			add(l.URL, model.LinkRoleCredibility)
		} else {
			add(l.URL, model.LinkRoleCTA)
		}
	}
	for _, u := range draft.CredibilityURLs {
		add(u, model.LinkRoleCredibility)
	}

	return targets
}

// Check checks every target. Results are aligned with targets.
func (c *Checker) Check(ctx context.Context, targets []Target) []model.LinkStatus {
	if len(targets) == 0 {
		return []model.LinkStatus{}
	}

	jobs := make([]worker.Job, len(targets))
	for i, t := range targets {
		jobs[i] = &linkJob{index: i, target: t, checker: c}
	}

	statuses := make([]model.LinkStatus, len(targets))
	done := make([]bool, len(targets))
	for _, res := range worker.Run(ctx, c.workers, jobs) {
		lr := res.(*linkResult)
		statuses[lr.index] = lr.status
		done[lr.index] = true
	}

	for i, t := range targets {
		if !done[i] {
			statuses[i] = model.LinkStatus{URL: t.URL, Role: t.Role, Error: "context cancelled"}
		}
	}

	return statuses
}

type linkJob struct {
	index   int
	target  Target
	checker *Checker
}

func (j *linkJob) Execute(ctx context.Context) worker.Result {
	return &linkResult{index: j.index, status: j.checker.checkWithRetry(ctx, j.target)}
}

type linkResult struct {
	index  int
	status model.LinkStatus
}

func (r *linkResult) GetIndex() int   { return r.index }
func (r *linkResult) GetError() error { return nil }

func (c *Checker) checkWithRetry(ctx context.Context, t Target) model.LinkStatus {
	if c.robots != nil {
		allowed, crawlDelay, err := c.robots.CanFetch(ctx, t.URL)
		if err == nil && !allowed {
			c.log.Debug("robots.txt disallows link", "url", t.URL)
			return model.LinkStatus{URL: t.URL, Role: t.Role, BlockedByRobots: true, Error: "disallowed by robots.txt"}
		}
		c.limiter.HonorCrawlDelay(t.URL, crawlDelay)
	}

	var status model.LinkStatus
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx, t.URL); err != nil {
			status = model.LinkStatus{URL: t.URL, Role: t.Role, Error: fmt.Sprintf("rate limit: %v", err)}
			break
		}

		status = c.checkSingle(ctx, t)
		status.Attempts = attempt + 1
		if !isRetryable(status) {
			break
		}
		if attempt < maxRetries-1 {
			c.log.Debug("retrying link", "url", t.URL, "status", status.StatusCode, "error", status.Error)
			sleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return status
}

func (c *Checker) checkSingle(ctx context.Context, t Target) model.LinkStatus {
	status := model.LinkStatus{URL: t.URL, Role: t.Role}

	resp, err := c.do(ctx, http.MethodHead, t.URL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		_ = resp.Body.Close()
		resp, err = c.do(ctx, http.MethodGet, t.URL)
	}
	if err != nil {
		status.Error = fmt.Sprintf("request failed: %v", err)
		status.Dead = isUnresolvable(status.Error)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		status.Reachable = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		status.Dead = true
	}

	if final := resp.Request.URL.String(); final != t.URL {
		status.RedirectURL = final
	}

	return status
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

// isRetryable is true for 5xx, 429 and transient network failures
func isRetryable(status model.LinkStatus) bool {
	if status.StatusCode >= 500 && status.StatusCode < 600 {
		return true
	}
	if status.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if status.Error == "" {
		return false
	}
	s := strings.ToLower(status.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func isUnresolvable(errMsg string) bool {
	return strings.Contains(strings.ToLower(errMsg), "no such host")
}
