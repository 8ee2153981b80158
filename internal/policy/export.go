package policy

import (
	"fmt"
	"time"
)

// OverrideSnapshot is the exported form of one temporary override.
type OverrideSnapshot struct {
	Expiry time.Time `json:"expiry"`
	Reason string    `json:"reason"`
}

// ConfigSnapshot is the JSON-serializable policy configuration: active
// level, full threshold table, and unexpired overrides.
type ConfigSnapshot struct {
	CurrentLevel    string                        `json:"current_level"`
	Policies        map[string]map[string]float64 `json:"policies"`
	ActiveOverrides map[string]OverrideSnapshot   `json:"active_overrides"`
	ExportTime      time.Time                     `json:"export_time"`
}

// ExportConfig serializes the active level, the threshold table, and all
// unexpired overrides.
func (e *Engine) ExportConfig() ConfigSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	policies := make(map[string]map[string]float64, len(e.table))
	for level, thresholds := range e.table {
		m := make(map[string]float64, len(thresholds))
		for cat, v := range thresholds {
			m[string(cat)] = v
		}
		policies[level.String()] = m
	}

	now := e.now()
	overrides := make(map[string]OverrideSnapshot)
	for pattern, ov := range e.overrides {
		if now.After(ov.expiry) {
			continue
		}
		overrides[pattern] = OverrideSnapshot{Expiry: ov.expiry, Reason: ov.reason}
	}

	return ConfigSnapshot{
		CurrentLevel:    e.level.String(),
		Policies:        policies,
		ActiveOverrides: overrides,
		ExportTime:      now,
	}
}

// ImportConfig restores a configuration snapshot. Importing at all requires
// Research-level authorization; restoring the threshold table additionally
// requires Unrestricted, because it rewrites the policy itself rather than
// selecting within it. Overrides past their expiry are dropped on import.
func (e *Engine) ImportConfig(snap ConfigSnapshot, token string) error {
	if !e.VerifyAuthorization(token, LevelResearch) {
		e.logger.Warn("unauthorized config import rejected")
		return fmt.Errorf("authorization required to import policy config")
	}

	if len(snap.Policies) > 0 {
		if !e.VerifyAuthorization(token, LevelUnrestricted) {
			e.logger.Warn("threshold import rejected, insufficient authorization")
			return fmt.Errorf("unrestricted authorization required to import thresholds")
		}
		table := make(Table, len(snap.Policies))
		for levelName, thresholds := range snap.Policies {
			level, err := ParseLevel(levelName)
			if err != nil {
				return err
			}
			m := make(map[Category]float64, len(thresholds))
			for catName, v := range thresholds {
				cat, err := ParseCategory(catName)
				if err != nil {
					return err
				}
				m[cat] = v
			}
			table[level] = m
		}
		if err := table.Validate(); err != nil {
			return err
		}
		e.mu.Lock()
		e.table = table
		e.mu.Unlock()
	}

	if snap.CurrentLevel != "" {
		level, err := ParseLevel(snap.CurrentLevel)
		if err != nil {
			return err
		}
		if err := e.SetLevel(level, token, "config import"); err != nil {
			return err
		}
	}

	now := e.now()
	for pattern, ov := range snap.ActiveOverrides {
		if now.After(ov.Expiry) {
			continue
		}
		if err := e.AddTemporaryOverride(pattern, ov.Expiry.Sub(now), ov.Reason, token); err != nil {
			return err
		}
	}

	e.logger.Info("policy configuration imported")
	return nil
}
