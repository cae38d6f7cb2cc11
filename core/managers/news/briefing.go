// Package news assembles a short headline briefing from web search results.
package news

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aida-voice/aida-core/core/websearch"
)

const (
	cacheDuration = 15 * time.Minute
	maxHeadlines  = 8
)

// Headline is a single briefing entry.
type Headline struct {
	Title    string
	Body     string
	URL      string
	Category string
}

type section struct {
	query      string
	category   string
	maxResults int
}

var sections = []section{
	{query: "top news", category: "Top Stories", maxResults: 5},
	{query: "technology news", category: "Technology", maxResults: 5},
	{query: "science breakthrough", category: "Science", maxResults: 3},
}

// Searcher is the search capability the briefing is built on.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error)
}

// Manager fetches headlines and caches the assembled briefing so repeated
// requests within a short window do not hit the network again.
type Manager struct {
	searcher Searcher

	mu        sync.Mutex
	cached    []Headline
	fetchedAt time.Time
}

func NewManager(searcher Searcher) *Manager {
	return &Manager{searcher: searcher}
}

// Briefing returns the current headline briefing, deduplicated by title and
// capped at a spoken-friendly length.
func (m *Manager) Briefing(ctx context.Context) ([]Headline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && time.Since(m.fetchedAt) < cacheDuration {
		return m.cached, nil
	}

	var headlines []Headline
	seen := map[string]bool{}
	for _, sec := range sections {
		results, err := m.searcher.Search(ctx, sec.query, sec.maxResults)
		if err != nil {
			if len(headlines) > 0 {
				continue
			}
			return nil, fmt.Errorf("failed to fetch headlines: %w", err)
		}

		for _, result := range results {
			if result.Title == "" || seen[result.Title] {
				continue
			}
			seen[result.Title] = true
			headlines = append(headlines, Headline{
				Title:    result.Title,
				Body:     result.Body,
				URL:      result.URL,
				Category: sec.category,
			})
		}
	}

	if len(headlines) > maxHeadlines {
		headlines = headlines[:maxHeadlines]
	}

	m.cached = headlines
	m.fetchedAt = time.Now()
	return headlines, nil
}
