package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is one web-search hit handed to the summarization prompt.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SnippetProvider fetches search results for a query. Implementations wrap
// whatever search backend is available.
type SnippetProvider interface {
	Search(ctx context.Context, query string, n int) ([]Result, error)
}

// Queries containing any of these switch the answer path to web search.
var triggerPhrases = []string{"cari di internet", "search online", "cari online"}

// IsSearchQuery reports whether the query asks for a web search.
func IsSearchQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range triggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// SimulatedProvider returns placeholder results shaped like real hits. It
// stands in until a real search backend is wired; the synthesis path treats
// its output the same as live snippets.
type SimulatedProvider struct{}

func (SimulatedProvider) Search(_ context.Context, query string, n int) ([]Result, error) {
	if n <= 0 {
		n = 5
	}
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{
			Title:   fmt.Sprintf("Hasil pencarian untuk '%s' - #%d", query, i+1),
			Link:    fmt.Sprintf("https://example.com/search/%d", i+1),
			Snippet: fmt.Sprintf("Ini adalah contoh hasil pencarian untuk %s.", query),
		}
	}
	return results, nil
}
