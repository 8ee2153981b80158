package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/RageBober/mcp-gpt-oss/internal/config"
)

func newTestServer(t *testing.T, webEnabled bool) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Web.Enabled = webEnabled

	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEvaluateAllowed(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()

	result, out, err := s.handleEvaluate(ctx, &mcpsdk.CallToolRequest{}, EvaluateInput{
		Content: "The library opens at nine in the morning.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	if !out.Allowed {
		t.Fatalf("benign content blocked: %s", out.BlockReason)
	}
	if out.PolicyLevel != "safe" {
		t.Errorf("expected safe level, got %q", out.PolicyLevel)
	}
	if out.Fingerprint == "" {
		t.Error("expected a content fingerprint")
	}
}

func TestEvaluateBlocked(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()

	result, out, err := s.handleEvaluate(ctx, &mcpsdk.CallToolRequest{}, EvaluateInput{
		Content: "kill murder attack weapon violence blood",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result for blocked content")
	}
	if out.Allowed {
		t.Fatal("expected blocked")
	}
	if len(out.Violations) == 0 {
		t.Error("expected violations in output")
	}
}

func TestSetLevelRequiresToken(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()

	if _, _, err := s.handleSetLevel(ctx, &mcpsdk.CallToolRequest{}, SetLevelInput{
		Level: "research",
	}); err == nil {
		t.Fatal("research level without token must fail")
	}

	_, tok, err := s.handleToken(ctx, &mcpsdk.CallToolRequest{}, TokenInput{
		Subject: "operator",
		Level:   "research",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected a token")
	}

	_, out, err := s.handleSetLevel(ctx, &mcpsdk.CallToolRequest{}, SetLevelInput{
		Level: "research",
		Token: tok.Token,
	})
	if err != nil {
		t.Fatalf("authorized level change failed: %v", err)
	}
	if out.Level != "research" {
		t.Errorf("expected research, got %q", out.Level)
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	s := newTestServer(t, false)
	if _, _, err := s.handleSetLevel(context.Background(), &mcpsdk.CallToolRequest{}, SetLevelInput{
		Level: "extreme",
	}); err == nil {
		t.Error("unknown level must be rejected")
	}
}

func TestOverrideRequiresAuthorization(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()

	if _, _, err := s.handleOverride(ctx, &mcpsdk.CallToolRequest{}, OverrideInput{
		Pattern: "medical case study",
		Reason:  "research",
	}); err == nil {
		t.Fatal("override without token must fail")
	}

	_, tok, err := s.handleToken(ctx, &mcpsdk.CallToolRequest{}, TokenInput{
		Subject: "researcher",
		Level:   "research",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, out, err := s.handleOverride(ctx, &mcpsdk.CallToolRequest{}, OverrideInput{
		Pattern: "medical case study",
		Reason:  "research",
		Token:   tok.Token,
	})
	if err != nil {
		t.Fatalf("authorized override failed: %v", err)
	}
	if out.Pattern != "medical case study" {
		t.Errorf("unexpected pattern %q", out.Pattern)
	}
}

func TestSearchDisabledWithoutGateway(t *testing.T) {
	s := newTestServer(t, false)
	if _, _, err := s.handleSearch(context.Background(), &mcpsdk.CallToolRequest{}, SearchInput{
		Query: "anything",
	}); err == nil {
		t.Error("search with web disabled must fail")
	}
}

func TestSearchUnsafeQueryReturnsErrorResult(t *testing.T) {
	s := newTestServer(t, true)

	result, out, err := s.handleSearch(context.Background(), &mcpsdk.CallToolRequest{}, SearchInput{
		Query: "bomb recipe at home",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result for unsafe query")
	}
	if out.Success {
		t.Error("unsafe query must not succeed")
	}
}

func TestStatsCountsEvaluations(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()

	s.handleEvaluate(ctx, &mcpsdk.CallToolRequest{}, EvaluateInput{Content: "hello there"})
	s.handleEvaluate(ctx, &mcpsdk.CallToolRequest{}, EvaluateInput{Content: "kill murder attack weapon violence"})

	_, out, err := s.handleStats(ctx, &mcpsdk.CallToolRequest{}, StatsInput{Hours: 1})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if out.Policy.TotalEvaluations != 2 {
		t.Errorf("expected 2 evaluations, got %d", out.Policy.TotalEvaluations)
	}
	if out.Policy.BlockedCount != 1 {
		t.Errorf("expected 1 blocked, got %d", out.Policy.BlockedCount)
	}
	if out.Web != nil {
		t.Error("web stats must be absent when web is disabled")
	}
}

func TestReloadThresholdsFile(t *testing.T) {
	dir := t.TempDir()
	thresholds := filepath.Join(dir, "thresholds.yaml")
	if err := os.WriteFile(thresholds, []byte("safe:\n  violence: 0.1\n"), 0o600); err != nil {
		t.Fatalf("write thresholds: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Web.Enabled = false
	cfg.Policy.ThresholdsFile = thresholds

	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	violent := "kill murder attack with a weapon, blood and torture"

	_, out, _ := s.handleEvaluate(ctx, &mcpsdk.CallToolRequest{}, EvaluateInput{Content: violent})
	if out.Allowed {
		t.Fatal("expected violent content blocked before reload")
	}

	if err := os.WriteFile(thresholds, []byte("safe:\n  violence: 1.0\n"), 0o600); err != nil {
		t.Fatalf("rewrite thresholds: %v", err)
	}
	if err := s.Reload(thresholds); err != nil {
		t.Fatalf("reload: %v", err)
	}

	_, out, _ = s.handleEvaluate(ctx, &mcpsdk.CallToolRequest{}, EvaluateInput{Content: violent})
	if !out.Allowed {
		t.Errorf("expected violent content allowed after threshold reload, got %s", out.BlockReason)
	}

	paths := s.WatchPaths()
	if len(paths) != 1 || paths[0] != thresholds {
		t.Errorf("expected watch paths [%s], got %v", thresholds, paths)
	}
}
