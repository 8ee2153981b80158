// Package assistant runs the guarded chat pipeline: user text is
// evaluated against the content policy before generation, optionally
// enriched with vetted web context, and the model's reply is evaluated
// again before it reaches the caller.
package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/RageBober/mcp-gpt-oss/internal/llm"
	"github.com/RageBober/mcp-gpt-oss/internal/policy"
	"github.com/RageBober/mcp-gpt-oss/internal/webaccess"
)

// Reply is the outcome of one guarded chat turn. A policy block is a
// normal outcome, reported through Blocked and BlockReason rather than
// an error.
type Reply struct {
	Content     string                      `json:"content,omitempty"`
	Blocked     bool                        `json:"blocked"`
	BlockReason string                      `json:"block_reason,omitempty"`
	PolicyLevel string                      `json:"policy_level"`
	Scores      map[policy.Category]float64 `json:"category_scores,omitempty"`

	WebSearchUsed   bool      `json:"web_search_used"`
	WebSourcesCount int       `json:"web_sources_count"`
	Usage           llm.Usage `json:"usage"`
	Timestamp       time.Time `json:"timestamp"`
}

// Assistant ties the policy engine, the web gateway and the chat
// backend together.
type Assistant struct {
	engine  *policy.Engine
	gateway *webaccess.Gateway
	client  *llm.Client
	logger  *log.Logger

	// WebEnabled gates the lookup step without touching the gateway.
	WebEnabled bool
}

// New builds an assistant. The gateway may be nil to run without web
// access.
func New(engine *policy.Engine, gateway *webaccess.Gateway, client *llm.Client, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Default()
	}
	return &Assistant{
		engine:     engine,
		gateway:    gateway,
		client:     client,
		logger:     logger,
		WebEnabled: gateway != nil,
	}
}

// Respond runs one guarded turn. The last user message is policy
// checked before anything else happens; when it asks for fresh
// information and web access is enabled, vetted search context is
// inserted ahead of it; the generated reply is policy checked before
// being returned. A web search failure degrades to answering without
// context.
func (a *Assistant) Respond(ctx context.Context, messages []llm.Message, userContext string) (Reply, error) {
	now := time.Now()

	userMessage := ""
	if len(messages) > 0 && messages[len(messages)-1].Role == "user" {
		userMessage = messages[len(messages)-1].Content
	}

	check := a.engine.EvaluateContent(userMessage, userContext)
	if !check.Allowed {
		return Reply{
			Blocked:     true,
			BlockReason: check.BlockReason,
			PolicyLevel: check.LevelName,
			Scores:      check.Scores,
			Timestamp:   now,
		}, nil
	}

	enhanced := messages
	sources := 0
	if a.WebEnabled && a.gateway != nil && NeedsWebSearch(userMessage) {
		query := ExtractSearchQuery(userMessage)
		a.logger.Info("performing web search", "query", query)

		resp := a.gateway.SearchWebSafely(ctx, query, 5, userContext)
		if resp.Success && len(resp.Results) > 0 {
			sources = len(resp.Results)
			contextMsg := llm.Message{
				Role:    "system",
				Content: "Current information from the web:\n" + formatWebContext(resp.Results),
			}
			enhanced = make([]llm.Message, 0, len(messages)+1)
			enhanced = append(enhanced, messages[:len(messages)-1]...)
			enhanced = append(enhanced, contextMsg, messages[len(messages)-1])
			a.logger.Info("added web context", "sources", sources)
		} else if !resp.Success {
			a.logger.Warn("web search failed, continuing without context", "reason", resp.Reason, "error", resp.Error)
		}
	}

	content, usage, err := a.client.Chat(ctx, enhanced)
	if err != nil {
		return Reply{}, fmt.Errorf("chat backend: %w", err)
	}

	responseCheck := a.engine.EvaluateContent(content, userContext)
	if !responseCheck.Allowed {
		return Reply{
			Blocked:     true,
			BlockReason: "Response blocked by content policy: " + responseCheck.BlockReason,
			PolicyLevel: responseCheck.LevelName,
			Scores:      responseCheck.Scores,
			Timestamp:   now,
		}, nil
	}

	return Reply{
		Content:         content,
		PolicyLevel:     check.LevelName,
		WebSearchUsed:   sources > 0,
		WebSourcesCount: sources,
		Usage:           usage,
		Timestamp:       now,
	}, nil
}

// formatWebContext renders vetted results as prompt context, each
// source labeled with its provenance and trust.
func formatWebContext(results []webaccess.Result) string {
	var sb strings.Builder
	for i, r := range results {
		content := r.Content
		if short := truncate(content, 800); short != content {
			content = short + "..."
		}
		fmt.Fprintf(&sb, "Source %d: %s\nURL: %s\nType: %s\nTrust: %.2f\nContent: %s\n\n",
			i+1, r.Title, r.URL, r.DomainType, r.TrustScore, content)
	}
	return strings.TrimSpace(sb.String())
}
