package webaccess

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
)

const preflightTimeout = 5 * time.Second

var allowedContentTypes = []string{"text/html", "text/plain", "application/json"}

// FetchResult is the sanitized outcome of a page fetch.
type FetchResult struct {
	Content       string
	ContentLength int
	FetchTime     time.Duration
}

// FetchSafeContent retrieves a page and reduces it to bounded, filtered
// plain text. The URL must carry a scheme and host; the domain must be
// under its rate limit. The body read is capped at the configured byte
// limit and the extracted text is truncated to the display limit.
func (g *Gateway) FetchSafeContent(ctx context.Context, rawURL string) (FetchResult, error) {
	start := g.now()

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return FetchResult{}, fmt.Errorf("invalid URL %q", rawURL)
	}

	domain := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if g.limiter.Limited(domain) {
		return FetchResult{}, fmt.Errorf("domain rate limit exceeded for %s", domain)
	}

	if err := g.preflight(ctx, rawURL); err != nil {
		return FetchResult{}, err
	}

	body, err := g.download(ctx, rawURL)
	if err != nil {
		return FetchResult{}, err
	}

	text := extractText(body)
	if ok, reason := filterContent(text, g.filters); !ok {
		return FetchResult{}, fmt.Errorf("content filtered: %s", reason)
	}

	g.limiter.RecordDomain(domain)

	length := utf8.RuneCountInString(text)
	if length > g.maxContentChars {
		text = truncate(text, g.maxContentChars)
	}

	return FetchResult{
		Content:       text,
		ContentLength: length,
		FetchTime:     g.now().Sub(start),
	}, nil
}

// preflight issues a HEAD request to reject oversized or non-text
// responses before the full download. A failed HEAD is not fatal; only
// a successful one reporting a bad size or type rejects the URL.
func (g *Gateway) preflight(ctx context.Context, rawURL string) error {
	headCtx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(headCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.Atoi(cl); err == nil && size > g.maxContentBytes {
			return fmt.Errorf("content too large: %d bytes", size)
		}
	}

	if ct := strings.ToLower(resp.Header.Get("Content-Type")); ct != "" {
		for _, allowed := range allowedContentTypes {
			if strings.Contains(ct, allowed) {
				return nil
			}
		}
		return fmt.Errorf("unsupported content type %q", ct)
	}

	return nil
}

// download fetches the page body, retrying transient failures with
// fibonacci backoff and capping the read at the configured byte limit.
func (g *Gateway) download(ctx context.Context, rawURL string) (string, error) {
	var body string

	backoff := retry.NewFibonacci(200 * time.Millisecond)
	err := retry.Do(ctx, retry.WithMaxRetries(2, backoff), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := g.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("server error: %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, int64(g.maxContentBytes)))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("reading body: %w", err))
		}
		body = string(data)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	return body, nil
}
