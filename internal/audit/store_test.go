package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func openPolicyStore(t *testing.T) *PolicyStore {
	t.Helper()
	s, err := OpenPolicy(filepath.Join(t.TempDir(), "policy.db"))
	if err != nil {
		t.Fatalf("open policy store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func openWebStore(t *testing.T) *WebStore {
	t.Helper()
	s, err := OpenWeb(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatalf("open web store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPolicyStatsFromDurableRows(t *testing.T) {
	s := openPolicyStore(t)

	rows := []EvaluationRow{
		{Fingerprint: "a", Level: "safe", Allowed: true},
		{Fingerprint: "b", Level: "safe", Allowed: false, BlockReason: "violence: 0.30 > 0.10"},
		{Fingerprint: "c", Level: "educational", Allowed: false, BlockReason: "violence: 0.30 > 0.10"},
		{Fingerprint: "d", Level: "safe", Allowed: true, OverrideApplied: true},
	}
	for _, r := range rows {
		if err := s.RecordEvaluation(r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	stats, err := s.Stats(time.Hour)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalEvaluations != 4 {
		t.Errorf("expected 4 evaluations, got %d", stats.TotalEvaluations)
	}
	if stats.AllowedCount != 2 || stats.BlockedCount != 2 {
		t.Errorf("expected 2 allowed / 2 blocked, got %d/%d", stats.AllowedCount, stats.BlockedCount)
	}
	if stats.OverrideCount != 1 {
		t.Errorf("expected 1 override, got %d", stats.OverrideCount)
	}
	if stats.AllowRate != 0.5 {
		t.Errorf("expected allow rate 0.5, got %f", stats.AllowRate)
	}
	if stats.LevelDistribution["safe"] != 3 {
		t.Errorf("expected 3 safe-level rows, got %d", stats.LevelDistribution["safe"])
	}
	if len(stats.TopBlockReasons) != 1 || stats.TopBlockReasons[0].Count != 2 {
		t.Errorf("expected one block reason with count 2, got %+v", stats.TopBlockReasons)
	}
}

func TestPolicyCleanupRemovesExpiredOverrides(t *testing.T) {
	s := openPolicyStore(t)

	if err := s.RecordOverride("test.*pattern", time.Now().Add(-time.Hour), "expired", "op-1"); err != nil {
		t.Fatalf("record override: %v", err)
	}
	if err := s.RecordOverride("live.*pattern", time.Now().Add(time.Hour), "live", "op-1"); err != nil {
		t.Fatalf("record override: %v", err)
	}

	counts, err := s.Cleanup(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if counts.Overrides != 1 {
		t.Errorf("expected 1 expired override deleted, got %d", counts.Overrides)
	}
	if counts.Evaluations != 0 {
		t.Errorf("fresh evaluations must not be deleted, got %d", counts.Evaluations)
	}
}

func TestUsageStats(t *testing.T) {
	s := openWebStore(t)

	reqs := []RequestRow{
		{Query: "q", URL: "https://en.wikipedia.org/wiki/Go", Domain: "en.wikipedia.org", Success: true, TrustScore: 0.9, ResponseTime: 100 * time.Millisecond},
		{Query: "q", URL: "https://example.com/x", Domain: "example.com", Success: false, TrustScore: 0.2, FilteredReason: "domain not trusted"},
		{Query: "q2", URL: "https://en.wikipedia.org/wiki/Cat", Domain: "en.wikipedia.org", Success: true, TrustScore: 0.9, ResponseTime: 300 * time.Millisecond},
	}
	for _, r := range reqs {
		if err := s.RecordRequest(r); err != nil {
			t.Fatalf("record request: %v", err)
		}
	}
	if err := s.RecordBlockedAttempt("how to make bomb", "", "illegal content", "HIGH"); err != nil {
		t.Fatalf("record blocked: %v", err)
	}

	stats, err := s.UsageStats(24 * time.Hour)
	if err != nil {
		t.Fatalf("usage stats: %v", err)
	}

	if stats.TotalRequests != 3 || stats.SuccessfulRequests != 2 {
		t.Errorf("expected 3 total / 2 success, got %d/%d", stats.TotalRequests, stats.SuccessfulRequests)
	}
	if stats.BlockedAttempts != 1 {
		t.Errorf("expected 1 blocked attempt, got %d", stats.BlockedAttempts)
	}
	if len(stats.TopDomains) != 1 || stats.TopDomains[0].Domain != "en.wikipedia.org" {
		t.Errorf("expected en.wikipedia.org as top domain, got %+v", stats.TopDomains)
	}
	if stats.TopDomains[0].Requests != 2 {
		t.Errorf("expected 2 successful requests for top domain, got %d", stats.TopDomains[0].Requests)
	}
}

func TestEvaluationRowsAreAppendOnly(t *testing.T) {
	s := openPolicyStore(t)

	if err := s.RecordEvaluation(EvaluationRow{Fingerprint: "x", Level: "safe", Allowed: true}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordEvaluation(EvaluationRow{Fingerprint: "x", Level: "safe", Allowed: false}); err != nil {
		t.Fatalf("record duplicate fingerprint: %v", err)
	}

	stats, err := s.Stats(time.Hour)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEvaluations != 2 {
		t.Errorf("same fingerprint must append a new row, got %d rows", stats.TotalEvaluations)
	}
}
