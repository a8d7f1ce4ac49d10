package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/cfpqc/internal/extract"
)

// Limiter paces outbound link checks per registered domain. A publisher's
// www, submission and journal subdomains share one budget.
type Limiter struct {
	mu      sync.Mutex
	domains map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter allowing requestsPerSecond per domain.
// A non-positive rate disables pacing until a crawl delay slows a domain down.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		domains: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// Wait blocks until the domain of rawURL may be requested again
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain, err := domainOf(rawURL)
	if err != nil {
		return err
	}
	return l.forDomain(domain).Wait(ctx)
}

// HonorCrawlDelay slows the domain of rawURL to one request per delay.
// It never speeds a domain up.
func (l *Limiter) HonorCrawlDelay(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	domain, err := domainOf(rawURL)
	if err != nil {
		return
	}

	lim := l.forDomain(domain)
	if every := rate.Every(delay); every < lim.Limit() {
		lim.SetLimit(every)
		lim.SetBurst(1)
	}
}

// Limit reports the current pace for the domain of rawURL
func (l *Limiter) Limit(rawURL string) rate.Limit {
	domain, err := domainOf(rawURL)
	if err != nil {
		return 0
	}
	return l.forDomain(domain).Limit()
}

func (l *Limiter) forDomain(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.domains[domain]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.domains[domain] = lim
	}
	return lim
}

func domainOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return extract.RegisteredDomain(rawURL), nil
}
