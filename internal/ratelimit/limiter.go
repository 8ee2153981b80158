// Package ratelimit implements the sliding-window request limiter used by
// the web access gateway. Two windows apply: a global one across all
// requests and a per-domain one. Timestamp lists are pruned lazily on every
// touch and bounded at the configured limit, so check cost stays constant
// under sustained load.
package ratelimit

import (
	"sync"
	"time"
)

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultGlobal allows 50 requests per hour across all domains.
var DefaultGlobal = Limit{Requests: 50, Window: time.Hour}

// DefaultPerDomain allows 10 requests per domain per 10 minutes.
var DefaultPerDomain = Limit{Requests: 10, Window: 10 * time.Minute}

const globalKey = "global"

// Limiter tracks request timestamps per key under a single mutex.
type Limiter struct {
	mu        sync.Mutex
	global    Limit
	perDomain Limit
	history   map[string][]time.Time
	now       func() time.Time
}

// New creates a limiter with the given budgets. Zero-valued limits fall
// back to the defaults.
func New(global, perDomain Limit) *Limiter {
	if global.Requests <= 0 || global.Window <= 0 {
		global = DefaultGlobal
	}
	if perDomain.Requests <= 0 || perDomain.Window <= 0 {
		perDomain = DefaultPerDomain
	}
	return &Limiter{
		global:    global,
		perDomain: perDomain,
		history:   make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Limited reports whether a request for the given domain would exceed a
// budget. An empty domain checks only the global window.
func (l *Limiter) Limited(domain string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.prune(globalKey, l.global, now)) >= l.global.Requests {
		return true
	}
	if domain != "" {
		if len(l.prune(domain, l.perDomain, now)) >= l.perDomain.Requests {
			return true
		}
	}
	return false
}

// RecordGlobal adds one timestamp to the global window. The gateway calls
// this once per search, not once per fetched page.
func (l *Limiter) RecordGlobal() {
	l.record(globalKey, l.global)
}

// RecordDomain adds one timestamp to a domain's window.
func (l *Limiter) RecordDomain(domain string) {
	if domain == "" {
		return
	}
	l.record(domain, l.perDomain)
}

func (l *Limiter) record(key string, limit Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hits := append(l.prune(key, limit, now), now)
	// Keep the list bounded: only the most recent Requests entries can
	// ever influence a check.
	if len(hits) > limit.Requests {
		hits = hits[len(hits)-limit.Requests:]
	}
	l.history[key] = hits
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *Limiter) prune(key string, limit Limit, now time.Time) []time.Time {
	hits := l.history[key]
	cutoff := now.Add(-limit.Window)
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		hits = hits[i:]
		l.history[key] = hits
	}
	return hits
}
