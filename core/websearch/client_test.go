package websearch

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const resultsPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Ffirst&amp;rut=abc">First Hit</a>
  <div class="result__snippet">Snippet about the first hit.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/second">Second Hit</a>
  <div class="result__snippet">  Second snippet.  </div>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/third">Third Hit</a>
</div>
</body></html>`

func TestParseResultsUnwrapsRedirectLinks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPage))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	results := parseResults(doc, 5)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].URL != "https://example.com/first" {
		t.Errorf("expected redirect to be unwrapped, got %q", results[0].URL)
	}
	if results[0].Title != "First Hit" {
		t.Errorf("unexpected title %q", results[0].Title)
	}
	if results[1].Body != "Second snippet." {
		t.Errorf("expected trimmed snippet, got %q", results[1].Body)
	}
	if results[2].Body != "" {
		t.Errorf("expected empty body for snippetless result, got %q", results[2].Body)
	}
}

func TestParseResultsHonorsLimit(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPage))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	results := parseResults(doc, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestResolveRedirectPassesThroughDirectLinks(t *testing.T) {
	if got := resolveRedirect("https://example.org/page"); got != "https://example.org/page" {
		t.Errorf("direct link changed to %q", got)
	}
}
