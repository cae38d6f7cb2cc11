// Package websearch queries DuckDuckGo's HTML endpoint, which works without
// an API key or a JavaScript runtime.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const searchURL = "https://html.duckduckgo.com/html/"

// Result is a single search hit.
type Result struct {
	Title string
	Body  string
	URL   string
}

// Client performs web searches with rate limiting so repeated queries do not
// get the host throttled.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]Result]
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		breaker: gobreaker.NewCircuitBreaker[[]Result](gobreaker.Settings{
			Name: "duckduckgo",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Search returns up to maxResults hits for the query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		err = fmt.Errorf("failed to wait for search rate limit: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	results, err := c.breaker.Execute(func() ([]Result, error) {
		return c.fetch(ctx, query, maxResults)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.InfoContext(ctx, "Search completed", "query", query, "results", len(results))
	return results, nil
}

func (c *Client) fetch(ctx context.Context, query string, maxResults int) ([]Result, error) {
	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/130.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned non-OK status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	return parseResults(doc, maxResults), nil
}

func parseResults(doc *goquery.Document, maxResults int) []Result {
	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find("a.result__a").First()
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return true
		}

		href, _ := anchor.Attr("href")
		results = append(results, Result{
			Title: title,
			Body:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			URL:   resolveRedirect(href),
		})
		return len(results) < maxResults
	})
	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// destination URL.
func resolveRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
