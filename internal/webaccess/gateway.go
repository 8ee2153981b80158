package webaccess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/RageBober/mcp-gpt-oss/internal/audit"
	"github.com/RageBober/mcp-gpt-oss/internal/ratelimit"
)

const (
	userAgent = "GPT-OSS-Research-Bot/1.0 (Educational Purpose)"

	// DefaultCacheTTL is how long a cached search response stays valid.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultMaxContentBytes caps how much of a page body is read.
	DefaultMaxContentBytes = 50000

	// DefaultMaxContentChars caps the extracted text returned per result.
	DefaultMaxContentChars = 3000

	// DefaultFetchTimeout bounds a single page download.
	DefaultFetchTimeout = 10 * time.Second
)

// Result is one vetted search hit with its sanitized page content.
type Result struct {
	Title         string        `json:"title"`
	URL           string        `json:"url"`
	Snippet       string        `json:"snippet"`
	Content       string        `json:"content"`
	TrustScore    float64       `json:"trust_score"`
	DomainType    string        `json:"domain_type"`
	FetchTime     time.Duration `json:"fetch_time"`
	ContentLength int           `json:"content_length"`
}

// Response is the aggregate outcome of a guarded search. Failure modes
// such as an unsafe query or an exhausted rate limit are reported here,
// not as errors; they are expected outcomes of the guard.
type Response struct {
	Success    bool          `json:"success"`
	Query      string        `json:"query,omitempty"`
	Results    []Result      `json:"results,omitempty"`
	TotalFound int           `json:"total_found"`
	SearchTime time.Duration `json:"search_time"`
	Timestamp  time.Time     `json:"timestamp"`
	Error      string        `json:"error,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

type cacheEntry struct {
	response Response
	storedAt time.Time
}

// Gateway mediates all outbound web access. Safe for concurrent use;
// network I/O happens outside the lock.
type Gateway struct {
	mu        sync.Mutex
	registry  *Registry
	cache     map[string]cacheEntry
	cacheTTL  time.Duration
	limiter   *ratelimit.Limiter
	client    *http.Client
	store     *audit.WebStore
	providers []SearchProvider
	filters   map[string][]string
	logger    *log.Logger

	maxContentBytes int
	maxContentChars int

	now func() time.Time
}

// GatewayConfig configures a Gateway. Zero-value fields fall back to
// defaults; Store may be nil to disable the audit trail.
type GatewayConfig struct {
	Registry  *Registry
	Store     *audit.WebStore
	Client    *http.Client
	Providers []SearchProvider
	Logger    *log.Logger
	CacheTTL  time.Duration

	MaxContentBytes int
	MaxContentChars int
}

// NewGateway builds a gateway from config.
func NewGateway(cfg GatewayConfig) *Gateway {
	g := &Gateway{
		registry:        cfg.Registry,
		cache:           make(map[string]cacheEntry),
		cacheTTL:        cfg.CacheTTL,
		limiter:         ratelimit.New(ratelimit.DefaultGlobal, ratelimit.DefaultPerDomain),
		client:          cfg.Client,
		store:           cfg.Store,
		providers:       cfg.Providers,
		filters:         defaultFilters(),
		logger:          cfg.Logger,
		maxContentBytes: cfg.MaxContentBytes,
		maxContentChars: cfg.MaxContentChars,
		now:             time.Now,
	}
	if g.registry == nil {
		g.registry = DefaultRegistry()
	}
	if g.cacheTTL == 0 {
		g.cacheTTL = DefaultCacheTTL
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if len(g.providers) == 0 {
		g.providers = []SearchProvider{
			&WikipediaProvider{Client: g.client},
			StaticProvider{},
		}
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	if g.maxContentBytes == 0 {
		g.maxContentBytes = DefaultMaxContentBytes
	}
	if g.maxContentChars == 0 {
		g.maxContentChars = DefaultMaxContentChars
	}
	return g
}

// IsSafeQuery reports whether a query passes the outgoing safety
// filters, with the rejection reason when it does not.
func (g *Gateway) IsSafeQuery(query string) (bool, string) {
	return checkQuery(query, g.filters)
}

// IsTrustedDomain resolves the trust standing of a URL.
func (g *Gateway) IsTrustedDomain(rawURL string) TrustDecision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.Evaluate(rawURL)
}

// SearchWebSafely runs the full guarded pipeline: query safety, global
// rate limit, cache, upstream search, per-result trust filtering and
// bounded fetch. Every per-URL outcome is audited. Only results from
// trusted domains with trust above 0.5 are fetched and returned.
func (g *Gateway) SearchWebSafely(ctx context.Context, query string, maxResults int, userContext string) Response {
	start := g.now()

	// Checked before the safety filter so an empty query is a plain
	// failure, not an audited blocked attempt.
	if strings.TrimSpace(query) == "" {
		return Response{Success: false, Error: "Empty query", Timestamp: start}
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	if safe, reason := checkQuery(query, g.filters); !safe {
		g.auditBlocked(query, "", reason, "HIGH")
		return Response{Success: false, Error: "Query blocked by safety filter", Reason: reason, Timestamp: start}
	}

	// A rate-limit rejection is not a blocked attempt; nothing is audited.
	if g.limiter.Limited("") {
		return Response{Success: false, Error: "Rate limit exceeded", Reason: "Too many requests, please wait", Timestamp: start}
	}

	key := cacheKey(query)
	g.mu.Lock()
	if entry, ok := g.cache[key]; ok && g.now().Sub(entry.storedAt) < g.cacheTTL {
		g.mu.Unlock()
		g.logger.Info("returning cached search result", "query", query)
		return entry.response
	}
	g.mu.Unlock()

	raw := g.runProviders(ctx, query, maxResults)
	if len(raw) == 0 {
		return Response{Success: false, Error: "No search results found", Timestamp: start}
	}

	// One correlation id for every audited row of this search.
	requestID := uuid.NewString()

	var results []Result
	for _, r := range raw {
		decision := g.IsTrustedDomain(r.URL)
		if !decision.Trusted || decision.Score <= 0.5 {
			g.auditRequest(audit.RequestRow{
				RequestID:      requestID,
				Query:          query,
				URL:            r.URL,
				Domain:         domainOrEmpty(r.URL),
				Success:        false,
				TrustScore:     decision.Score,
				FilteredReason: "Domain not trusted: " + decision.Reason,
				UserContext:    userContext,
			})
			continue
		}

		fetched, err := g.FetchSafeContent(ctx, r.URL)
		if err != nil {
			g.auditRequest(audit.RequestRow{
				RequestID:      requestID,
				Query:          query,
				URL:            r.URL,
				Domain:         domainOrEmpty(r.URL),
				Success:        false,
				TrustScore:     decision.Score,
				FilteredReason: err.Error(),
				UserContext:    userContext,
			})
			continue
		}

		results = append(results, Result{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       r.Snippet,
			Content:       fetched.Content,
			TrustScore:    decision.Score,
			DomainType:    decision.Reason,
			FetchTime:     fetched.FetchTime,
			ContentLength: utf8.RuneCountInString(fetched.Content),
		})
		g.auditRequest(audit.RequestRow{
			RequestID:     requestID,
			Query:         query,
			URL:           r.URL,
			Domain:        domainOrEmpty(r.URL),
			Success:       true,
			ContentLength: utf8.RuneCountInString(fetched.Content),
			ResponseTime:  fetched.FetchTime,
			TrustScore:    decision.Score,
			UserContext:   userContext,
		})
	}

	// One global timestamp per search, not per fetched page.
	g.limiter.RecordGlobal()

	response := Response{
		Success:    true,
		Query:      query,
		Results:    results,
		TotalFound: len(results),
		SearchTime: g.now().Sub(start),
		Timestamp:  start,
	}

	g.mu.Lock()
	g.cache[key] = cacheEntry{response: response, storedAt: g.now()}
	g.mu.Unlock()

	return response
}

// runProviders collects raw results from providers in order until
// maxResults are gathered. A provider failure falls through to the
// next provider.
func (g *Gateway) runProviders(ctx context.Context, query string, maxResults int) []RawResult {
	var collected []RawResult
	for _, p := range g.providers {
		if len(collected) >= maxResults {
			break
		}
		results, err := p.Search(ctx, query, maxResults-len(collected))
		if err != nil {
			g.logger.Warn("search provider failed", "provider", p.Name(), "error", err)
			continue
		}
		collected = append(collected, results...)
	}
	if len(collected) > maxResults {
		collected = collected[:maxResults]
	}
	return collected
}

// UsageStatistics aggregates audited request activity over the window.
func (g *Gateway) UsageStatistics(window time.Duration) (audit.UsageStats, error) {
	if g.store == nil {
		return audit.UsageStats{}, fmt.Errorf("no audit store configured")
	}
	return g.store.UsageStats(window)
}

// AddTrustedDomain registers a trusted domain at runtime. The change is
// in-memory only.
func (g *Gateway) AddTrustedDomain(domain, category string, trust float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.registry.Add(domain, category, trust); err != nil {
		return err
	}
	g.logger.Info("added trusted domain", "domain", domain, "category", category, "trust", trust)
	return nil
}

// RemoveTrustedDomain drops a trusted domain. Returns false if it was
// not registered.
func (g *Gateway) RemoveTrustedDomain(domain string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := g.registry.Remove(domain)
	if removed {
		g.logger.Info("removed trusted domain", "domain", domain)
	}
	return removed
}

// TrustedDomains returns a snapshot of the current registry.
func (g *Gateway) TrustedDomains() RegistryFile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.Snapshot()
}

// ReloadRegistry swaps in a new domain registry, typically after a
// config file change.
func (g *Gateway) ReloadRegistry(r *Registry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registry = r
	g.logger.Info("domain registry reloaded")
}

// ClearCache drops all cached search responses.
func (g *Gateway) ClearCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache = make(map[string]cacheEntry)
	g.logger.Info("web access cache cleared")
}

// CacheSize reports the number of cached responses, stale included.
func (g *Gateway) CacheSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache)
}

// CleanupExpiredData removes audit rows older than the retention window.
func (g *Gateway) CleanupExpiredData(retention time.Duration) (int, error) {
	if g.store == nil {
		return 0, nil
	}
	return g.store.Cleanup(retention)
}

// auditRequest records a per-URL outcome. Audit failures are logged,
// never surfaced to the caller.
func (g *Gateway) auditRequest(row audit.RequestRow) {
	if g.store == nil {
		return
	}
	if err := g.store.RecordRequest(row); err != nil {
		g.logger.Error("failed to audit web request", "url", row.URL, "error", err)
	}
}

func (g *Gateway) auditBlocked(query, url, reason, severity string) {
	if g.store == nil {
		return
	}
	if err := g.store.RecordBlockedAttempt(query, url, reason, severity); err != nil {
		g.logger.Error("failed to audit blocked attempt", "query", query, "error", err)
	}
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

func domainOrEmpty(rawURL string) string {
	domain, err := hostOf(rawURL)
	if err != nil {
		return ""
	}
	return domain
}
