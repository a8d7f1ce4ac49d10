package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// robotsTTL bounds how long a fetched robots.txt is trusted
const robotsTTL = time.Hour

// RobotsChecker answers robots.txt questions per origin. Concurrent checks
// against one publisher share a single fetch.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	agent     string
	files     *gocache.Cache
	fetches   singleflight.Group
}

// NewRobotsChecker creates a robots.txt checker for userAgent
func NewRobotsChecker(userAgent string, client *http.Client) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		agent:     productToken(userAgent),
		files:     gocache.New(robotsTTL, 2*robotsTTL),
	}
}

// CanFetch reports whether rawURL may be requested and the crawl delay the
// publisher asks for. An unreachable robots.txt allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, 0, fmt.Errorf("no host in %q", rawURL)
	}

	data, err := r.robotsFor(ctx, parsed.Scheme+"://"+parsed.Host)
	if err != nil {
		return true, 0, nil
	}

	group := data.FindGroup(r.agent)
	if group == nil {
		return true, 0, nil
	}
	return group.Test(parsed.EscapedPath()), group.CrawlDelay, nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	if cached, ok := r.files.Get(origin); ok {
		return cached.(*robotstxt.RobotsData), nil
	}

	v, err, _ := r.fetches.Do(origin, func() (interface{}, error) {
		data, err := r.fetch(ctx, origin+"/robots.txt")
		if err != nil {
			return nil, err
		}
		r.files.SetDefault(origin, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*robotstxt.RobotsData), nil
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 4xx means no restrictions, 5xx disallows all
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

// productToken reduces "cfpqc/0.1 (+https://...)" to "cfpqc" for group matching
func productToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
