package audit

import (
	"database/sql"
	"fmt"
	"time"
)

const policySchema = `
CREATE TABLE IF NOT EXISTS content_evaluations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	content_hash TEXT,
	policy_level TEXT,
	category_scores TEXT,
	final_decision INTEGER,
	block_reason TEXT,
	user_context TEXT,
	override_applied INTEGER DEFAULT 0
);
CREATE TABLE IF NOT EXISTS policy_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	old_level TEXT,
	new_level TEXT,
	auth_token_hash TEXT,
	reason TEXT
);
CREATE TABLE IF NOT EXISTS content_overrides (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	content_pattern TEXT,
	override_type TEXT,
	expiry INTEGER,
	reason TEXT,
	authorized_by TEXT
);
CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON content_evaluations(ts);
CREATE INDEX IF NOT EXISTS idx_changes_ts ON policy_changes(ts);
`

// PolicyStore persists content evaluations, policy level changes, and
// temporary overrides.
type PolicyStore struct {
	db *sql.DB
}

// OpenPolicy opens (or creates) the policy audit database at path.
func OpenPolicy(path string) (*PolicyStore, error) {
	db, err := open(path, policySchema)
	if err != nil {
		return nil, err
	}
	return &PolicyStore{db: db}, nil
}

// Close releases the underlying database.
func (s *PolicyStore) Close() error {
	return s.db.Close()
}

// EvaluationRow is one content evaluation audit record.
type EvaluationRow struct {
	Fingerprint     string
	Level           string
	Scores          string // JSON-encoded category → score map
	Allowed         bool
	BlockReason     string
	UserContext     string
	OverrideApplied bool
}

// RecordEvaluation appends one evaluation row.
func (s *PolicyStore) RecordEvaluation(row EvaluationRow) error {
	_, err := s.db.Exec(`
		INSERT INTO content_evaluations
		(ts, content_hash, policy_level, category_scores, final_decision, block_reason, user_context, override_applied)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), row.Fingerprint, row.Level, row.Scores,
		row.Allowed, row.BlockReason, row.UserContext, row.OverrideApplied)
	if err != nil {
		return fmt.Errorf("audit: record evaluation: %w", err)
	}
	return nil
}

// RecordPolicyChange appends one level transition row. The token hash is a
// truncated digest, never the raw token.
func (s *PolicyStore) RecordPolicyChange(oldLevel, newLevel, tokenHash, reason string) error {
	_, err := s.db.Exec(`
		INSERT INTO policy_changes (ts, old_level, new_level, auth_token_hash, reason)
		VALUES (?, ?, ?, ?, ?)`,
		time.Now().Unix(), oldLevel, newLevel, tokenHash, reason)
	if err != nil {
		return fmt.Errorf("audit: record policy change: %w", err)
	}
	return nil
}

// RecordOverride appends one temporary override row.
func (s *PolicyStore) RecordOverride(pattern string, expiry time.Time, reason, authorizedBy string) error {
	_, err := s.db.Exec(`
		INSERT INTO content_overrides (ts, content_pattern, override_type, expiry, reason, authorized_by)
		VALUES (?, ?, 'temporary', ?, ?, ?)`,
		time.Now().Unix(), pattern, expiry.Unix(), reason, authorizedBy)
	if err != nil {
		return fmt.Errorf("audit: record override: %w", err)
	}
	return nil
}

// ReasonCount is one block reason with its frequency.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// PolicyStats aggregates evaluation outcomes over a trailing window.
// Computed from the store, not in-memory counters, so the numbers survive
// process restarts.
type PolicyStats struct {
	Window            time.Duration  `json:"-"`
	TotalEvaluations  int            `json:"total_evaluations"`
	AllowedCount      int            `json:"allowed_count"`
	BlockedCount      int            `json:"blocked_count"`
	OverrideCount     int            `json:"override_count"`
	AllowRate         float64        `json:"allow_rate"`
	LevelDistribution map[string]int `json:"level_distribution"`
	TopBlockReasons   []ReasonCount  `json:"top_block_reasons"`
}

// Stats computes aggregate evaluation statistics over the trailing window.
func (s *PolicyStore) Stats(window time.Duration) (PolicyStats, error) {
	stats := PolicyStats{Window: window, LevelDistribution: make(map[string]int)}
	since := cutoff(window)

	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN final_decision = 1 THEN 1 END),
		       COUNT(CASE WHEN final_decision = 0 THEN 1 END),
		       COUNT(CASE WHEN override_applied = 1 THEN 1 END)
		FROM content_evaluations WHERE ts >= ?`, since).
		Scan(&stats.TotalEvaluations, &stats.AllowedCount, &stats.BlockedCount, &stats.OverrideCount)
	if err != nil {
		return stats, fmt.Errorf("audit: evaluation totals: %w", err)
	}
	if stats.TotalEvaluations > 0 {
		stats.AllowRate = float64(stats.AllowedCount) / float64(stats.TotalEvaluations)
	}

	rows, err := s.db.Query(`
		SELECT policy_level, COUNT(*) FROM content_evaluations
		WHERE ts >= ? GROUP BY policy_level`, since)
	if err != nil {
		return stats, fmt.Errorf("audit: level distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return stats, err
		}
		stats.LevelDistribution[level] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	reasons, err := s.db.Query(`
		SELECT block_reason, COUNT(*) AS n FROM content_evaluations
		WHERE ts >= ? AND final_decision = 0 AND block_reason != ''
		GROUP BY block_reason ORDER BY n DESC LIMIT 10`, since)
	if err != nil {
		return stats, fmt.Errorf("audit: block reasons: %w", err)
	}
	defer reasons.Close()
	for reasons.Next() {
		var rc ReasonCount
		if err := reasons.Scan(&rc.Reason, &rc.Count); err != nil {
			return stats, err
		}
		stats.TopBlockReasons = append(stats.TopBlockReasons, rc)
	}
	return stats, reasons.Err()
}

// CleanupCounts reports rows deleted by a retention sweep.
type CleanupCounts struct {
	Evaluations   int `json:"deleted_evaluations"`
	PolicyChanges int `json:"deleted_policy_changes"`
	Overrides     int `json:"deleted_overrides"`
}

// Cleanup deletes evaluation and change rows older than the retention
// period, plus override rows whose expiry has passed.
func (s *PolicyStore) Cleanup(retention time.Duration) (CleanupCounts, error) {
	var counts CleanupCounts
	since := cutoff(retention)

	res, err := s.db.Exec(`DELETE FROM content_evaluations WHERE ts < ?`, since)
	if err != nil {
		return counts, fmt.Errorf("audit: cleanup evaluations: %w", err)
	}
	n, _ := res.RowsAffected()
	counts.Evaluations = int(n)

	res, err = s.db.Exec(`DELETE FROM policy_changes WHERE ts < ?`, since)
	if err != nil {
		return counts, fmt.Errorf("audit: cleanup policy changes: %w", err)
	}
	n, _ = res.RowsAffected()
	counts.PolicyChanges = int(n)

	res, err = s.db.Exec(`DELETE FROM content_overrides WHERE expiry < ?`, time.Now().Unix())
	if err != nil {
		return counts, fmt.Errorf("audit: cleanup overrides: %w", err)
	}
	n, _ = res.RowsAffected()
	counts.Overrides = int(n)

	return counts, nil
}
