package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/RageBober/mcp-gpt-oss/internal/llm"
	"github.com/RageBober/mcp-gpt-oss/internal/policy"
	"github.com/RageBober/mcp-gpt-oss/internal/webaccess"
)

// --- Input/Output types ---

// EvaluateInput defines parameters for the gptoss_evaluate tool.
type EvaluateInput struct {
	Content     string `json:"content" jsonschema:"text to evaluate"`
	UserContext string `json:"user_context,omitempty" jsonschema:"caller identity for the audit trail"`
}

// EvaluateOutput contains the policy decision and per-category scores.
type EvaluateOutput struct {
	Allowed         bool                        `json:"allowed"`
	PolicyLevel     string                      `json:"policy_level"`
	Scores          map[policy.Category]float64 `json:"category_scores"`
	Violations      []string                    `json:"violations,omitempty"`
	OverrideApplied bool                        `json:"override_applied"`
	Fingerprint     string                      `json:"content_fingerprint"`
	BlockReason     string                      `json:"block_reason,omitempty"`
}

// SearchInput defines parameters for the gptoss_search tool.
type SearchInput struct {
	Query       string `json:"query" jsonschema:"search query"`
	MaxResults  int    `json:"max_results,omitempty" jsonschema:"maximum results to return (default 5)"`
	UserContext string `json:"user_context,omitempty" jsonschema:"caller identity for the audit trail"`
}

// SearchOutput contains vetted search results or the rejection reason.
type SearchOutput struct {
	Success    bool               `json:"success"`
	Results    []webaccess.Result `json:"results,omitempty"`
	TotalFound int                `json:"total_found"`
	Error      string             `json:"error,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// FetchInput defines parameters for the gptoss_fetch tool.
type FetchInput struct {
	URL string `json:"url" jsonschema:"page URL to fetch"`
}

// FetchOutput contains sanitized page text.
type FetchOutput struct {
	Content       string  `json:"content"`
	ContentLength int     `json:"content_length"`
	TrustScore    float64 `json:"trust_score"`
	FetchTimeMS   int64   `json:"fetch_time_ms"`
}

// ChatInput defines parameters for the gptoss_chat tool.
type ChatInput struct {
	Prompt      string `json:"prompt" jsonschema:"user prompt"`
	System      string `json:"system,omitempty" jsonschema:"optional system prompt"`
	UserContext string `json:"user_context,omitempty" jsonschema:"caller identity for the audit trail"`
}

// ChatOutput contains the guarded reply or block details.
type ChatOutput struct {
	Content         string `json:"content,omitempty"`
	Blocked         bool   `json:"blocked"`
	BlockReason     string `json:"block_reason,omitempty"`
	PolicyLevel     string `json:"policy_level"`
	WebSearchUsed   bool   `json:"web_search_used"`
	WebSourcesCount int    `json:"web_sources_count"`
}

// SetLevelInput defines parameters for the gptoss_set_level tool.
type SetLevelInput struct {
	Level  string `json:"level" jsonschema:"target level (safe/educational/research/unrestricted)"`
	Token  string `json:"token,omitempty" jsonschema:"authorization token, required for research and above"`
	Reason string `json:"reason,omitempty" jsonschema:"reason recorded in the audit trail"`
}

// SetLevelOutput confirms the level change.
type SetLevelOutput struct {
	Level string `json:"level"`
}

// TokenInput defines parameters for the gptoss_token tool.
type TokenInput struct {
	Subject  string `json:"subject" jsonschema:"who the token is minted for"`
	Level    string `json:"level" jsonschema:"level the token authorizes"`
	TTLHours int    `json:"ttl_hours,omitempty" jsonschema:"token lifetime in hours (default 24)"`
}

// TokenOutput carries the minted token.
type TokenOutput struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// OverrideInput defines parameters for the gptoss_override tool.
type OverrideInput struct {
	Pattern  string `json:"pattern" jsonschema:"regex pattern to allow temporarily"`
	TTLHours int    `json:"ttl_hours,omitempty" jsonschema:"override lifetime in hours (default 1)"`
	Reason   string `json:"reason" jsonschema:"why the override is needed"`
	Token    string `json:"token" jsonschema:"research-level authorization token"`
}

// OverrideOutput confirms the override.
type OverrideOutput struct {
	Pattern   string `json:"pattern"`
	ExpiresAt string `json:"expires_at"`
}

// StatsInput defines parameters for the gptoss_stats tool.
type StatsInput struct {
	Hours int `json:"hours,omitempty" jsonschema:"window in hours (default 24)"`
}

// StatsOutput aggregates policy and web activity.
type StatsOutput struct {
	Policy policy.Statistics `json:"policy"`
	Web    *webWindowStats   `json:"web,omitempty"`
}

type webWindowStats struct {
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	SuccessRate        float64 `json:"success_rate"`
	AvgResponseTimeMS  float64 `json:"avg_response_time_ms"`
	AvgTrustScore      float64 `json:"avg_trust_score"`
	BlockedAttempts    int     `json:"blocked_attempts"`
}

// --- Handlers ---

func (s *Server) handleEvaluate(ctx context.Context, req *mcpsdk.CallToolRequest, input EvaluateInput) (*mcpsdk.CallToolResult, EvaluateOutput, error) {
	result := s.engine.EvaluateContent(input.Content, input.UserContext)

	out := EvaluateOutput{
		Allowed:         result.Allowed,
		PolicyLevel:     result.LevelName,
		Scores:          result.Scores,
		Violations:      result.Violations,
		OverrideApplied: result.OverrideApplied,
		Fingerprint:     result.Fingerprint,
		BlockReason:     result.BlockReason,
	}
	if !result.Allowed {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleSearch(ctx context.Context, req *mcpsdk.CallToolRequest, input SearchInput) (*mcpsdk.CallToolResult, SearchOutput, error) {
	if s.gateway == nil {
		return nil, SearchOutput{}, fmt.Errorf("web access is disabled")
	}

	resp := s.gateway.SearchWebSafely(ctx, input.Query, input.MaxResults, input.UserContext)
	out := SearchOutput{
		Success:    resp.Success,
		Results:    resp.Results,
		TotalFound: resp.TotalFound,
		Error:      resp.Error,
		Reason:     resp.Reason,
	}
	if !resp.Success {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleFetch(ctx context.Context, req *mcpsdk.CallToolRequest, input FetchInput) (*mcpsdk.CallToolResult, FetchOutput, error) {
	if s.gateway == nil {
		return nil, FetchOutput{}, fmt.Errorf("web access is disabled")
	}

	decision := s.gateway.IsTrustedDomain(input.URL)
	if !decision.Trusted || decision.Score <= 0.5 {
		return nil, FetchOutput{}, fmt.Errorf("domain not trusted: %s", decision.Reason)
	}

	fetched, err := s.gateway.FetchSafeContent(ctx, input.URL)
	if err != nil {
		return nil, FetchOutput{}, err
	}

	return nil, FetchOutput{
		Content:       fetched.Content,
		ContentLength: fetched.ContentLength,
		TrustScore:    decision.Score,
		FetchTimeMS:   fetched.FetchTime.Milliseconds(),
	}, nil
}

func (s *Server) handleChat(ctx context.Context, req *mcpsdk.CallToolRequest, input ChatInput) (*mcpsdk.CallToolResult, ChatOutput, error) {
	var messages []llm.Message
	if input.System != "" {
		messages = append(messages, llm.Message{Role: "system", Content: input.System})
	}
	messages = append(messages, llm.Message{Role: "user", Content: input.Prompt})

	reply, err := s.assistant.Respond(ctx, messages, input.UserContext)
	if err != nil {
		return nil, ChatOutput{}, err
	}

	out := ChatOutput{
		Content:         reply.Content,
		Blocked:         reply.Blocked,
		BlockReason:     reply.BlockReason,
		PolicyLevel:     reply.PolicyLevel,
		WebSearchUsed:   reply.WebSearchUsed,
		WebSourcesCount: reply.WebSourcesCount,
	}
	if reply.Blocked {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleSetLevel(ctx context.Context, req *mcpsdk.CallToolRequest, input SetLevelInput) (*mcpsdk.CallToolResult, SetLevelOutput, error) {
	level, err := policy.ParseLevel(input.Level)
	if err != nil {
		return nil, SetLevelOutput{}, err
	}
	if err := s.engine.SetLevel(level, input.Token, input.Reason); err != nil {
		return nil, SetLevelOutput{}, err
	}
	return nil, SetLevelOutput{Level: level.String()}, nil
}

func (s *Server) handleToken(ctx context.Context, req *mcpsdk.CallToolRequest, input TokenInput) (*mcpsdk.CallToolResult, TokenOutput, error) {
	level, err := policy.ParseLevel(input.Level)
	if err != nil {
		return nil, TokenOutput{}, err
	}

	ttl := policy.DefaultTokenTTL
	if input.TTLHours > 0 {
		ttl = time.Duration(input.TTLHours) * time.Hour
	}

	token := s.engine.GenerateToken(input.Subject, level, ttl)
	return nil, TokenOutput{
		Token:     token,
		ExpiresAt: time.Now().Add(ttl).Format(time.RFC3339),
	}, nil
}

func (s *Server) handleOverride(ctx context.Context, req *mcpsdk.CallToolRequest, input OverrideInput) (*mcpsdk.CallToolResult, OverrideOutput, error) {
	ttl := time.Hour
	if input.TTLHours > 0 {
		ttl = time.Duration(input.TTLHours) * time.Hour
	}

	if err := s.engine.AddTemporaryOverride(input.Pattern, ttl, input.Reason, input.Token); err != nil {
		return nil, OverrideOutput{}, err
	}

	return nil, OverrideOutput{
		Pattern:   input.Pattern,
		ExpiresAt: time.Now().Add(ttl).Format(time.RFC3339),
	}, nil
}

func (s *Server) handleStats(ctx context.Context, req *mcpsdk.CallToolRequest, input StatsInput) (*mcpsdk.CallToolResult, StatsOutput, error) {
	hours := input.Hours
	if hours <= 0 {
		hours = 24
	}
	window := time.Duration(hours) * time.Hour

	policyStats, err := s.engine.Statistics(window)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	out := StatsOutput{Policy: policyStats}
	if s.gateway != nil {
		webStats, err := s.gateway.UsageStatistics(window)
		if err != nil {
			return nil, StatsOutput{}, err
		}
		out.Web = &webWindowStats{
			TotalRequests:      webStats.TotalRequests,
			SuccessfulRequests: webStats.SuccessfulRequests,
			SuccessRate:        webStats.SuccessRate,
			AvgResponseTimeMS:  webStats.AvgResponseTimeMS,
			AvgTrustScore:      webStats.AvgTrustScore,
			BlockedAttempts:    webStats.BlockedAttempts,
		}
	}
	return nil, out, nil
}
