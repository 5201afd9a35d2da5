package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	bmerrors "github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/model"
)

// maxBodyBytes bounds how much of a page is read for metadata.
const maxBodyBytes = 2 << 20

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Timeout       time.Duration
	UserAgent     string
	RespectRobots bool
}

// Fetcher downloads pages and extracts their metadata.
type Fetcher struct {
	client        *http.Client
	userAgent     string
	respectRobots bool
	robotsCache   map[string]*robotstxt.RobotsData
	robotsMu      sync.RWMutex
	logger        logrus.FieldLogger
	now           func() time.Time
}

// NewFetcher creates a Fetcher. A zero timeout defaults to 10 seconds.
func NewFetcher(opts FetcherOptions, logger logrus.FieldLogger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "BookmarkEngine/1.0"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:     opts.UserAgent,
		respectRobots: opts.RespectRobots,
		robotsCache:   make(map[string]*robotstxt.RobotsData),
		logger:        logger.WithField("component", "metadata"),
		now:           time.Now,
	}
}

// Fetch returns the metadata of rawURL. It starts from what the URL alone
// tells (see AnalyzeURL) and merges the page's own metadata over it. When the
// page cannot be read, because robots.txt forbids it, the request fails or the
// status is not 2xx, the URL-derived metadata is returned without error. A
// timeout counts as an unreadable page. Only an invalid URL or a cancelled ctx
// is an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.Metadata, error) {
	basic, err := AnalyzeURL(rawURL)
	if err != nil {
		return nil, err
	}
	basic.FetchedAt = f.now().UTC()

	page, err := f.fetchPage(ctx, rawURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		f.logger.WithError(err).WithField("url", rawURL).Warn("Page unavailable, using URL metadata")
		return basic, nil
	}

	md := mergeMetadata(basic, page)
	f.logger.WithFields(logrus.Fields{
		"url":      rawURL,
		"title":    md.Title,
		"keywords": len(md.Keywords),
	}).Debug("Fetched page metadata")
	return md, nil
}

// fetchPage downloads and parses the page at rawURL.
func (f *Fetcher) fetchPage(ctx context.Context, rawURL string) (*model.Metadata, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if f.respectRobots && !f.IsAllowed(ctx, u) {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, bmerrors.ErrDisallowedByRobots)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.WithError(closeErr).Debug("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	return Extract(io.LimitReader(resp.Body, maxBodyBytes), rawURL)
}

// mergeMetadata lays the non-empty fields of page over basic. Keywords are
// the union of both, page keywords first.
func mergeMetadata(basic, page *model.Metadata) *model.Metadata {
	md := *page
	md.Title = firstNonEmpty(page.Title, basic.Title)
	md.Domain = firstNonEmpty(page.Domain, basic.Domain)
	md.Type = firstNonEmpty(page.Type, basic.Type)
	md.Platform = firstNonEmpty(page.Platform, basic.Platform)
	md.Keywords = mergeKeywords(page.Keywords, basic.Keywords)
	md.FetchedAt = basic.FetchedAt
	return &md
}

// IsAllowed reports whether robots.txt of the URL's host permits the fetcher's
// user agent to fetch its path. Hosts with no readable robots.txt allow everything.
func (f *Fetcher) IsAllowed(ctx context.Context, u *url.URL) bool {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	f.robotsMu.RLock()
	robots, exists := f.robotsCache[robotsURL]
	f.robotsMu.RUnlock()

	if !exists {
		robots = f.fetchRobotsTxt(ctx, robotsURL)
		f.robotsMu.Lock()
		f.robotsCache[robotsURL] = robots
		f.robotsMu.Unlock()
	}

	if robots == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.FindGroup(f.userAgent).Test(path)
}

func (f *Fetcher) fetchRobotsTxt(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.WithError(err).WithField("robots_url", robotsURL).Debug("robots.txt unavailable")
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		f.logger.WithError(err).WithField("robots_url", robotsURL).Warn("Failed to parse robots.txt")
		return nil
	}
	return robots
}

func mergeKeywords(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, k := range list {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
