// Package audit provides the durable append-only stores behind the content
// policy engine and the web access gateway. Each component owns an
// independent SQLite database; rows are never mutated after insert and are
// pruned only by retention age.
//
// Writes are serialized through a single connection so concurrent callers
// within the process cannot corrupt the store. Callers treat write failures
// as best-effort observability: they log and move on.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

func open(path, schema string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("audit: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	// One connection: SQLite serializes writers, and a single conn avoids
	// SQLITE_BUSY churn between in-process callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	return db, nil
}

// cutoff returns the unix timestamp bounding a trailing window.
func cutoff(window time.Duration) int64 {
	return time.Now().Add(-window).Unix()
}
