package provider

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

const rssUserAgent = "Mozilla/5.0 (compatible; jobscout/1.0)"

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s{3,}`)
)

// RSS reads job boards that publish an RSS or Atom feed. The source id is
// the feed URL.
type RSS struct {
	client *http.Client
}

// NewRSS creates the feed provider; a nil client gets a default one.
func NewRSS(client *http.Client) *RSS {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c := *client
	c.Transport = &rssTransport{base: base}
	return &RSS{client: &c}
}

// rssTransport injects a User-Agent header into every request.
type rssTransport struct {
	base http.RoundTripper
}

func (t *rssTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", rssUserAgent)
	return t.base.RoundTrip(req)
}

// Fetch parses the feed and returns its newest items first, as published.
func (r *RSS) Fetch(ctx context.Context, src domain.Source, limit int) ([]domain.Candidate, error) {
	fp := gofeed.NewParser()
	fp.Client = r.client

	feed, err := fp.ParseURLWithContext(src.SourceID, ctx)
	if err != nil {
		return nil, domain.NewProviderError(src.Name, classifyFeedError(err), fmt.Errorf("fetch %s: %w", src.SourceID, err))
	}

	fetchedAt := time.Now()
	out := make([]domain.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, domain.Candidate{
			SourceName: src.Name,
			Text:       itemText(item),
			Link:       item.Link,
			PostedAt:   itemPublishedTime(item),
			FetchedAt:  fetchedAt,
		})
	}
	return out, nil
}

func classifyFeedError(err error) domain.ProviderErrorKind {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized, httpErr.StatusCode == http.StatusForbidden:
			return domain.ProviderErrAuth
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return domain.ProviderErrRateLimit
		case httpErr.StatusCode >= 500:
			return domain.ProviderErrNetwork
		default:
			return domain.ProviderErrUnknown
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ProviderErrNetwork
	}
	return domain.ProviderErrUnknown
}

func itemPublishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func itemText(item *gofeed.Item) string {
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}

	text := stripHTML(raw)
	if item.Title != "" && !strings.Contains(text, item.Title) {
		text = item.Title + "\n\n" + text
	}
	return strings.TrimSpace(text)
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
