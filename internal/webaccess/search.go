package webaccess

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RawResult is a single upstream search hit before trust filtering.
type RawResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchProvider is a swappable upstream search mechanism. Results it
// returns are untrusted; the gateway filters them against the domain
// registry before anything is fetched.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]RawResult, error)
}

// WikipediaProvider resolves queries against the Wikipedia REST summary
// endpoint. It returns at most one result, the page matching the query
// title.
type WikipediaProvider struct {
	Client  *http.Client
	BaseURL string
}

func (p *WikipediaProvider) Name() string { return "wikipedia" }

func (p *WikipediaProvider) Search(ctx context.Context, query string, maxResults int) ([]RawResult, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	base := p.BaseURL
	if base == "" {
		base = "https://en.wikipedia.org/api/rest_v1/page/summary"
	}
	endpoint := base + "/" + url.PathEscape(strings.ReplaceAll(query, " ", "_"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building wikipedia request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia summary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var summary struct {
		Type        string `json:"type"`
		Title       string `json:"title"`
		Extract     string `json:"extract"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decoding wikipedia summary: %w", err)
	}

	if summary.Type != "standard" || summary.Extract == "" {
		return nil, nil
	}

	snippet := summary.Extract
	if short := truncate(snippet, 200); short != snippet {
		snippet = short + "..."
	}

	title := summary.Title
	if title == "" {
		title = query
	}

	return []RawResult{{
		Title:   title,
		URL:     summary.ContentURLs.Desktop.Page,
		Snippet: snippet,
	}}, nil
}

// StaticProvider is the offline fallback for environments without an
// outbound search API. It points the query at the search pages of
// well-known trusted sites; those URLs still go through the normal
// trust and fetch pipeline.
type StaticProvider struct{}

func (StaticProvider) Name() string { return "static" }

func (StaticProvider) Search(_ context.Context, query string, maxResults int) ([]RawResult, error) {
	escaped := url.QueryEscape(query)
	results := []RawResult{
		{
			Title:   fmt.Sprintf("Technical documentation for %s", query),
			URL:     "https://github.com/search?q=" + escaped,
			Snippet: fmt.Sprintf("Technical resources and documentation related to %s", query),
		},
		{
			Title:   fmt.Sprintf("Stack Overflow discussions about %s", query),
			URL:     "https://stackoverflow.com/search?q=" + escaped,
			Snippet: fmt.Sprintf("Community discussions and solutions for %s", query),
		},
	}
	if maxResults < len(results) {
		results = results[:maxResults]
	}
	return results, nil
}
