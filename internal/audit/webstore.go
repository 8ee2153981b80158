package audit

import (
	"database/sql"
	"fmt"
	"time"
)

const webSchema = `
CREATE TABLE IF NOT EXISTS web_requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	request_id TEXT,
	query TEXT NOT NULL,
	url TEXT,
	domain TEXT,
	success INTEGER,
	content_length INTEGER,
	response_time_ms INTEGER,
	trust_score REAL,
	filtered_reason TEXT,
	user_context TEXT
);
CREATE TABLE IF NOT EXISTS blocked_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	query TEXT NOT NULL,
	url TEXT,
	block_reason TEXT,
	severity TEXT
);
CREATE INDEX IF NOT EXISTS idx_requests_ts ON web_requests(ts);
CREATE INDEX IF NOT EXISTS idx_blocked_ts ON blocked_attempts(ts);
`

// WebStore persists per-URL fetch outcomes and blocked query attempts for
// the web access gateway.
type WebStore struct {
	db *sql.DB
}

// OpenWeb opens (or creates) the web access audit database at path.
func OpenWeb(path string) (*WebStore, error) {
	db, err := open(path, webSchema)
	if err != nil {
		return nil, err
	}
	return &WebStore{db: db}, nil
}

// Close releases the underlying database.
func (s *WebStore) Close() error {
	return s.db.Close()
}

// RequestRow is one per-URL fetch outcome, accepted or filtered.
type RequestRow struct {
	RequestID      string
	Query          string
	URL            string
	Domain         string
	Success        bool
	ContentLength  int
	ResponseTime   time.Duration
	TrustScore     float64
	FilteredReason string
	UserContext    string
}

// RecordRequest appends one web request row.
func (s *WebStore) RecordRequest(row RequestRow) error {
	_, err := s.db.Exec(`
		INSERT INTO web_requests
		(ts, request_id, query, url, domain, success, content_length, response_time_ms, trust_score, filtered_reason, user_context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), row.RequestID, row.Query, row.URL, row.Domain,
		row.Success, row.ContentLength, row.ResponseTime.Milliseconds(),
		row.TrustScore, row.FilteredReason, row.UserContext)
	if err != nil {
		return fmt.Errorf("audit: record web request: %w", err)
	}
	return nil
}

// RecordBlockedAttempt appends one rejected-query row.
func (s *WebStore) RecordBlockedAttempt(query, url, reason, severity string) error {
	_, err := s.db.Exec(`
		INSERT INTO blocked_attempts (ts, query, url, block_reason, severity)
		VALUES (?, ?, ?, ?, ?)`,
		time.Now().Unix(), query, url, reason, severity)
	if err != nil {
		return fmt.Errorf("audit: record blocked attempt: %w", err)
	}
	return nil
}

// BlockedAttemptCount returns the number of blocked attempts in the window.
func (s *WebStore) BlockedAttemptCount(window time.Duration) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM blocked_attempts WHERE ts >= ?`, cutoff(window)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: blocked attempt count: %w", err)
	}
	return n, nil
}

// DomainCount is one domain with its successful-request volume.
type DomainCount struct {
	Domain   string `json:"domain"`
	Requests int    `json:"requests"`
}

// UsageStats aggregates gateway activity over a trailing window.
type UsageStats struct {
	Window             time.Duration `json:"-"`
	TotalRequests      int           `json:"total_requests"`
	SuccessfulRequests int           `json:"successful_requests"`
	SuccessRate        float64       `json:"success_rate"`
	AvgResponseTimeMS  float64       `json:"avg_response_time_ms"`
	AvgTrustScore      float64       `json:"avg_trust_score"`
	BlockedAttempts    int           `json:"blocked_attempts"`
	TopDomains         []DomainCount `json:"top_domains"`
}

// UsageStats computes gateway usage statistics over the trailing window.
func (s *WebStore) UsageStats(window time.Duration) (UsageStats, error) {
	stats := UsageStats{Window: window}
	since := cutoff(window)

	var avgTime, avgTrust sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN success = 1 THEN 1 END),
		       AVG(response_time_ms),
		       AVG(trust_score)
		FROM web_requests WHERE ts >= ?`, since).
		Scan(&stats.TotalRequests, &stats.SuccessfulRequests, &avgTime, &avgTrust)
	if err != nil {
		return stats, fmt.Errorf("audit: usage totals: %w", err)
	}
	stats.AvgResponseTimeMS = avgTime.Float64
	stats.AvgTrustScore = avgTrust.Float64
	if stats.TotalRequests > 0 {
		stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests)
	}

	stats.BlockedAttempts, err = s.BlockedAttemptCount(window)
	if err != nil {
		return stats, err
	}

	rows, err := s.db.Query(`
		SELECT domain, COUNT(*) AS n FROM web_requests
		WHERE ts >= ? AND success = 1 AND domain != ''
		GROUP BY domain ORDER BY n DESC LIMIT 10`, since)
	if err != nil {
		return stats, fmt.Errorf("audit: top domains: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Requests); err != nil {
			return stats, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}
	return stats, rows.Err()
}

// Cleanup deletes request and blocked-attempt rows older than retention.
func (s *WebStore) Cleanup(retention time.Duration) (int, error) {
	since := cutoff(retention)
	total := 0

	res, err := s.db.Exec(`DELETE FROM web_requests WHERE ts < ?`, since)
	if err != nil {
		return total, fmt.Errorf("audit: cleanup web requests: %w", err)
	}
	n, _ := res.RowsAffected()
	total += int(n)

	res, err = s.db.Exec(`DELETE FROM blocked_attempts WHERE ts < ?`, since)
	if err != nil {
		return total, fmt.Errorf("audit: cleanup blocked attempts: %w", err)
	}
	n, _ = res.RowsAffected()
	total += int(n)

	return total, nil
}
