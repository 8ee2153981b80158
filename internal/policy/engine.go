package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	log "log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RageBober/mcp-gpt-oss/internal/audit"
	"github.com/RageBober/mcp-gpt-oss/internal/score"
)

// DefaultTokenTTL is the session token lifetime when none is given.
const DefaultTokenTTL = 24 * time.Hour

type session struct {
	subject string
	level   Level
	expiry  time.Time
}

type override struct {
	re        *regexp.Regexp
	expiry    time.Time
	reason    string
	createdBy string
}

// Engine is the process-wide content policy engine. All mutable state
// (active level, session tokens, overrides) lives behind one mutex;
// detector scoring runs outside the lock.
type Engine struct {
	mu        sync.Mutex
	level     Level
	table     Table
	detectors map[Category]score.Config
	sessions  map[string]session
	overrides map[string]*override

	store  *audit.PolicyStore
	logger *log.Logger
	now    func() time.Time
}

// EngineConfig holds construction parameters. Zero fields fall back to
// defaults; Store may be nil, in which case audit persistence is disabled
// and statistics are unavailable.
type EngineConfig struct {
	Table     Table
	Detectors map[Category]score.Config
	Store     *audit.PolicyStore
	Logger    *log.Logger
}

// NewEngine creates an engine at the Safe level.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	table := cfg.Table
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	detectors := cfg.Detectors
	if detectors == nil {
		detectors = DefaultDetectors()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		level:     LevelSafe,
		table:     table,
		detectors: detectors,
		sessions:  make(map[string]session),
		overrides: make(map[string]*override),
		store:     cfg.Store,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Level returns the active policy level.
func (e *Engine) Level() Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// GenerateToken mints an opaque session token bound to subject, level, and
// expiry. There is no revocation beyond natural expiry.
func (e *Engine) GenerateToken(subject string, level Level, ttl time.Duration) string {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	seed := fmt.Sprintf("%s:%s:%s:%s", subject, level, e.now().Format(time.RFC3339Nano), uuid.NewString())
	sum := sha256.Sum256([]byte(seed))
	token := hex.EncodeToString(sum[:])[:32]

	e.mu.Lock()
	e.sessions[token] = session{subject: subject, level: level, expiry: e.now().Add(ttl)}
	e.mu.Unlock()

	e.logger.Info("generated auth token", "subject", subject, "level", level.String())
	return token
}

// VerifyAuthorization reports whether the token is live and its granted
// level satisfies the required level. Expired tokens are evicted on sight.
// The result carries no detail about why verification failed.
func (e *Engine) VerifyAuthorization(token string, required Level) bool {
	if token == "" {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[token]
	if !ok {
		return false
	}
	if e.now().After(s.expiry) {
		delete(e.sessions, token)
		return false
	}
	return s.level >= required
}

// SetLevel switches the active policy level. Research and Unrestricted
// require a token authorized at (or above) the target level; Safe and
// Educational need none. Every successful transition is audited.
func (e *Engine) SetLevel(target Level, token, reason string) error {
	if target < LevelSafe || target > LevelUnrestricted {
		return fmt.Errorf("invalid policy level %d", int(target))
	}

	if target.RequiresAuthorization() && !e.VerifyAuthorization(token, target) {
		e.logger.Warn("unauthorized policy level change rejected", "target", target.String())
		return fmt.Errorf("authorization required for level %s", target)
	}

	e.mu.Lock()
	old := e.level
	e.level = target
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.RecordPolicyChange(old.String(), target.String(), tokenDigest(token), reason); err != nil {
			e.logger.Error("failed to audit policy change", "error", err)
		}
	}

	e.logger.Info("policy level changed", "old", old.String(), "new", target.String())
	return nil
}

// Result is the outcome of one content evaluation.
type Result struct {
	Allowed         bool                 `json:"allowed"`
	Level           Level                `json:"-"`
	LevelName       string               `json:"policy_level"`
	Scores          map[Category]float64 `json:"category_scores"`
	Violations      []string             `json:"violations"`
	OverrideApplied bool                 `json:"override_applied"`
	Fingerprint     string               `json:"content_fingerprint"`
	EvaluatedAt     time.Time            `json:"evaluation_time"`
	BlockReason     string               `json:"block_reason,omitempty"`
}

// EvaluateContent scores content against all category detectors and checks
// each score against the active level's thresholds. A violation is strict
// score > threshold; a matching unexpired override suppresses all
// violations for this evaluation. One audit row is appended regardless of
// outcome; internal failures degrade to a blocked result, never a pass.
func (e *Engine) EvaluateContent(content, userContext string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("content evaluation panic", "panic", r)
			result = e.errorResult(fmt.Sprintf("Evaluation error: %v", r))
			e.audit(result, userContext)
		}
	}()

	e.mu.Lock()
	level := e.level
	thresholds := e.table[level]
	e.mu.Unlock()

	if strings.TrimSpace(content) == "" {
		result = Result{
			Allowed:     false,
			Level:       level,
			LevelName:   level.String(),
			Scores:      map[Category]float64{},
			Violations:  []string{"Empty content"},
			EvaluatedAt: e.now(),
			BlockReason: "Empty or invalid content",
		}
		e.audit(result, userContext)
		return result
	}

	// Scoring and override matching happen outside the engine lock so slow
	// regexes cannot stall other callers.
	scores := make(map[Category]float64, len(Categories))
	for _, cat := range Categories {
		scores[cat] = e.scoreCategory(cat, content)
	}

	overrideApplied := e.CheckTemporaryOverrides(content)

	var violations []string
	allowed := true
	for _, cat := range Categories {
		threshold := thresholds[cat]
		if scores[cat] > threshold && !overrideApplied {
			violations = append(violations, fmt.Sprintf("%s: %.2f > %.2f", cat, scores[cat], threshold))
			allowed = false
		}
	}

	result = Result{
		Allowed:         allowed,
		Level:           level,
		LevelName:       level.String(),
		Scores:          scores,
		Violations:      violations,
		OverrideApplied: overrideApplied,
		Fingerprint:     Fingerprint(content),
		EvaluatedAt:     e.now(),
	}
	if !allowed {
		result.BlockReason = strings.Join(violations, "; ")
	}

	e.audit(result, userContext)
	return result
}

// scoreCategory runs one detector. A detector failure is coerced to 0.0:
// fail-open per category so one bad detector cannot abort the evaluation.
func (e *Engine) scoreCategory(cat Category, content string) (s float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("detector failed", "category", string(cat), "panic", r)
			s = 0.0
		}
	}()
	cfg, ok := e.detectors[cat]
	if !ok {
		return 0.0
	}
	return score.Score(content, cfg)
}

func (e *Engine) errorResult(violation string) Result {
	e.mu.Lock()
	level := e.level
	e.mu.Unlock()
	return Result{
		Allowed:     false,
		Level:       level,
		LevelName:   level.String(),
		Scores:      map[Category]float64{},
		Violations:  []string{violation},
		EvaluatedAt: e.now(),
		BlockReason: "System error during evaluation",
	}
}

// audit appends one evaluation row. Persistence failures are logged and
// swallowed; they never surface to the evaluation caller.
func (e *Engine) audit(r Result, userContext string) {
	if e.store == nil {
		return
	}
	scoresJSON, err := json.Marshal(r.Scores)
	if err != nil {
		scoresJSON = []byte("{}")
	}
	row := audit.EvaluationRow{
		Fingerprint:     r.Fingerprint,
		Level:           r.LevelName,
		Scores:          string(scoresJSON),
		Allowed:         r.Allowed,
		BlockReason:     r.BlockReason,
		UserContext:     userContext,
		OverrideApplied: r.OverrideApplied,
	}
	if err := e.store.RecordEvaluation(row); err != nil {
		e.logger.Error("failed to audit content evaluation", "error", err)
	}
}

// AddTemporaryOverride registers a pattern-based exemption. Requires
// Research-level authorization. The creator recorded in the audit store is
// a truncated token digest, never the raw token.
func (e *Engine) AddTemporaryOverride(pattern string, ttl time.Duration, reason, token string) error {
	if !e.VerifyAuthorization(token, LevelResearch) {
		e.logger.Warn("unauthorized override rejected")
		return fmt.Errorf("authorization required to add overrides")
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid override pattern: %w", err)
	}

	expiry := e.now().Add(ttl)
	createdBy := tokenDigest(token)

	e.mu.Lock()
	e.overrides[pattern] = &override{re: re, expiry: expiry, reason: reason, createdBy: createdBy}
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.RecordOverride(pattern, expiry, reason, createdBy); err != nil {
			e.logger.Error("failed to audit override", "error", err)
		}
	}

	e.logger.Info("added temporary override", "pattern", pattern, "expiry", expiry)
	return nil
}

// CheckTemporaryOverrides reports whether any unexpired override pattern
// matches the content. Expired patterns are purged from the live set as a
// side effect; there is no separate background sweep.
func (e *Engine) CheckTemporaryOverrides(content string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	matched := false
	for pattern, ov := range e.overrides {
		if now.After(ov.expiry) {
			delete(e.overrides, pattern)
			continue
		}
		if !matched && ov.re.MatchString(content) {
			matched = true
		}
	}
	return matched
}

// ActiveOverrides returns the number of unexpired overrides.
func (e *Engine) ActiveOverrides() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	n := 0
	for _, ov := range e.overrides {
		if !now.After(ov.expiry) {
			n++
		}
	}
	return n
}

// Statistics aggregates evaluation outcomes over the trailing window from
// the audit store, plus live engine state.
type Statistics struct {
	audit.PolicyStats
	CurrentLevel    string `json:"current_policy_level"`
	ActiveOverrides int    `json:"active_overrides"`
}

// Statistics computes durable evaluation statistics for the window.
func (e *Engine) Statistics(window time.Duration) (Statistics, error) {
	if e.store == nil {
		return Statistics{}, fmt.Errorf("no audit store configured")
	}
	stats, err := e.store.Stats(window)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		PolicyStats:     stats,
		CurrentLevel:    e.Level().String(),
		ActiveOverrides: e.ActiveOverrides(),
	}, nil
}

// CleanupExpiredData prunes audit rows past the retention age and sweeps
// expired overrides from the live set.
func (e *Engine) CleanupExpiredData(retention time.Duration) (audit.CleanupCounts, error) {
	e.mu.Lock()
	now := e.now()
	for pattern, ov := range e.overrides {
		if now.After(ov.expiry) {
			delete(e.overrides, pattern)
		}
	}
	e.mu.Unlock()

	if e.store == nil {
		return audit.CleanupCounts{}, nil
	}
	return e.store.Cleanup(retention)
}

// ReloadTable swaps in a new threshold table, used by config hot-reload.
func (e *Engine) ReloadTable(table Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.table = table
	e.mu.Unlock()
	e.logger.Info("policy threshold table reloaded")
	return nil
}

// Fingerprint returns a short non-cryptographic hash of content for audit
// correlation. Collisions are tolerable; raw text is never stored.
func Fingerprint(content string) string {
	h := fnv.New64a()
	h.Write([]byte(content))
	return fmt.Sprintf("%016x", h.Sum64())
}

// tokenDigest returns a truncated digest of a token for audit rows.
func tokenDigest(token string) string {
	if token == "" {
		return "system"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:16]
}
