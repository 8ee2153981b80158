// Package webaccess provides a guarded gateway for outbound web lookups:
// domain trust and blocklists, query and content safety filters, rate
// limiting, bounded fetching with markup stripping, a TTL result cache,
// and a durable audit trail.
package webaccess

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DomainInfo describes a trusted domain entry.
type DomainInfo struct {
	Category  string  `yaml:"category"`
	Trust     float64 `yaml:"trust"`
	RateLimit int     `yaml:"rate_limit"`
}

// RegistryFile is the on-disk YAML shape of a domain registry.
type RegistryFile struct {
	Trusted map[string]DomainInfo `yaml:"trusted"`
	Blocked []string              `yaml:"blocked"`
}

// Registry holds the trusted-domain table and the blocked-domain
// substrings. It is not safe for concurrent use on its own; the
// gateway guards it.
type Registry struct {
	trusted map[string]DomainInfo
	blocked []string
}

// NewRegistry builds a registry from a raw file shape.
func NewRegistry(f RegistryFile) *Registry {
	r := &Registry{
		trusted: make(map[string]DomainInfo, len(f.Trusted)),
		blocked: append([]string(nil), f.Blocked...),
	}
	for domain, info := range f.Trusted {
		r.trusted[strings.ToLower(domain)] = info
	}
	return r
}

// DefaultRegistry returns the built-in trusted and blocked domain sets.
func DefaultRegistry() *Registry {
	return NewRegistry(RegistryFile{
		Trusted: map[string]DomainInfo{
			"wikipedia.org":       {Category: "encyclopedia", Trust: 0.9, RateLimit: 10},
			"en.wikipedia.org":    {Category: "encyclopedia", Trust: 0.9, RateLimit: 10},
			"github.com":          {Category: "code_repository", Trust: 0.8, RateLimit: 15},
			"stackoverflow.com":   {Category: "technical_qa", Trust: 0.8, RateLimit: 10},
			"arxiv.org":           {Category: "scientific", Trust: 0.9, RateLimit: 5},
			"news.ycombinator.com": {Category: "tech_news", Trust: 0.7, RateLimit: 8},
			"medium.com":          {Category: "articles", Trust: 0.7, RateLimit: 10},
		},
		Blocked: []string{"4chan.org", "8kun.top", "gab.com", "parler.com"},
	})
}

// LoadRegistry reads a domain registry from a YAML file. Falls back to
// defaults if the file doesn't exist.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRegistry(), nil
		}
		return nil, err
	}

	var f RegistryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing domain registry: %w", err)
	}
	for domain, info := range f.Trusted {
		if info.Trust < 0 || info.Trust > 1 {
			return nil, fmt.Errorf("domain %s: trust score %f out of range [0, 1]", domain, info.Trust)
		}
	}

	return NewRegistry(f), nil
}

// TrustDecision is the outcome of resolving a URL against the registry.
type TrustDecision struct {
	Trusted bool
	Score   float64
	Reason  string
}

// Evaluate resolves the trust standing of a URL. A blocked-domain
// substring match always wins, even when a trusted suffix also matches.
// Unknown domains get a low default score and are not trusted.
func (r *Registry) Evaluate(rawURL string) TrustDecision {
	domain, err := hostOf(rawURL)
	if err != nil {
		return TrustDecision{Trusted: false, Score: 0.0, Reason: fmt.Sprintf("Error parsing domain: %v", err)}
	}

	for _, blocked := range r.blocked {
		if strings.Contains(domain, blocked) {
			return TrustDecision{Trusted: false, Score: 0.0, Reason: fmt.Sprintf("Domain %s is blocked", domain)}
		}
	}

	for trusted, info := range r.trusted {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			return TrustDecision{Trusted: true, Score: info.Trust, Reason: "Trusted domain: " + info.Category}
		}
	}

	return TrustDecision{Trusted: false, Score: 0.2, Reason: fmt.Sprintf("Domain %s is not in trusted list", domain)}
}

// Add registers a trusted domain. Trust must be within [0, 1].
func (r *Registry) Add(domain, category string, trust float64) error {
	if trust < 0 || trust > 1 {
		return fmt.Errorf("trust score %f out of range [0, 1]", trust)
	}
	r.trusted[strings.ToLower(domain)] = DomainInfo{Category: category, Trust: trust, RateLimit: 10}
	return nil
}

// Remove deletes a trusted domain. Returns false if it was not present.
func (r *Registry) Remove(domain string) bool {
	key := strings.ToLower(domain)
	if _, ok := r.trusted[key]; !ok {
		return false
	}
	delete(r.trusted, key)
	return true
}

// Snapshot returns the registry as its serializable file shape.
func (r *Registry) Snapshot() RegistryFile {
	f := RegistryFile{
		Trusted: make(map[string]DomainInfo, len(r.trusted)),
		Blocked: append([]string(nil), r.blocked...),
	}
	for domain, info := range r.trusted {
		f.Trusted[domain] = info
	}
	return f
}

// hostOf extracts the lowercase hostname of a URL, stripping a leading
// "www." prefix.
func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}
