package ratelimit

import (
	"testing"
	"time"
)

func TestGlobalLimitEnforced(t *testing.T) {
	l := New(Limit{Requests: 3, Window: time.Hour}, DefaultPerDomain)

	for i := 0; i < 3; i++ {
		if l.Limited("") {
			t.Fatalf("request %d should not be limited", i)
		}
		l.RecordGlobal()
	}

	if !l.Limited("") {
		t.Error("expected global limit after 3 requests")
	}
}

func TestDomainLimitIndependentOfGlobal(t *testing.T) {
	l := New(Limit{Requests: 100, Window: time.Hour}, Limit{Requests: 2, Window: 10 * time.Minute})

	l.RecordDomain("wikipedia.org")
	l.RecordDomain("wikipedia.org")

	if !l.Limited("wikipedia.org") {
		t.Error("expected wikipedia.org to be rate limited")
	}
	if l.Limited("github.com") {
		t.Error("other domains must not be limited")
	}
	if l.Limited("") {
		t.Error("global window must not be limited")
	}
}

func TestWindowSlides(t *testing.T) {
	l := New(Limit{Requests: 1, Window: time.Minute}, DefaultPerDomain)

	base := time.Now()
	l.now = func() time.Time { return base }
	l.RecordGlobal()

	if !l.Limited("") {
		t.Fatal("expected limit immediately after recording")
	}

	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	if l.Limited("") {
		t.Error("expected limit to expire after the window slides")
	}
}

func TestHistoryStaysBounded(t *testing.T) {
	l := New(Limit{Requests: 5, Window: time.Hour}, DefaultPerDomain)

	for i := 0; i < 100; i++ {
		l.RecordGlobal()
	}

	l.mu.Lock()
	n := len(l.history[globalKey])
	l.mu.Unlock()

	if n > 5 {
		t.Errorf("history must be capped at the limit, got %d entries", n)
	}
}

func TestZeroLimitsFallBackToDefaults(t *testing.T) {
	l := New(Limit{}, Limit{})
	if l.global != DefaultGlobal {
		t.Errorf("expected default global limit, got %+v", l.global)
	}
	if l.perDomain != DefaultPerDomain {
		t.Errorf("expected default per-domain limit, got %+v", l.perDomain)
	}
}
