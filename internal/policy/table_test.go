package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTableComplete(t *testing.T) {
	if err := DefaultTable().Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
}

// Thresholds relax with permissiveness for the risk categories, except
// illegal, which Unrestricted caps below the Research value.
func TestThresholdsRelaxWithLevel(t *testing.T) {
	table := DefaultTable()

	relaxing := []Category{CategoryViolence, CategoryAdult, CategoryHateSpeech, CategoryMedical, CategoryPolitical, CategoryControversial}
	for i := 0; i < len(Levels)-1; i++ {
		lower, higher := Levels[i], Levels[i+1]
		for _, cat := range relaxing {
			if table[higher][cat] < table[lower][cat] {
				t.Errorf("%s/%s (%.2f) must be >= %s/%s (%.2f)",
					higher, cat, table[higher][cat], lower, cat, table[lower][cat])
			}
		}
	}
}

func TestIllegalThresholdHasSafetyFloor(t *testing.T) {
	table := DefaultTable()
	if table[LevelUnrestricted][CategoryIllegal] >= table[LevelResearch][CategoryIllegal] {
		t.Errorf("illegal threshold at unrestricted (%.2f) must stay below research (%.2f)",
			table[LevelUnrestricted][CategoryIllegal], table[LevelResearch][CategoryIllegal])
	}
}

func TestLoadTableMissingFileFallsBack(t *testing.T) {
	table, err := LoadTable(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if table[LevelSafe][CategoryViolence] != 0.1 {
		t.Errorf("expected default safe/violence threshold 0.1, got %f", table[LevelSafe][CategoryViolence])
	}
}

func TestLoadTableOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	content := "safe:\n  violence: 0.25\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table[LevelSafe][CategoryViolence] != 0.25 {
		t.Errorf("expected overridden threshold 0.25, got %f", table[LevelSafe][CategoryViolence])
	}
	if table[LevelSafe][CategoryAdult] != 0.0 {
		t.Errorf("unnamed thresholds must keep defaults, got %f", table[LevelSafe][CategoryAdult])
	}
}

func TestLoadTableRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("safe: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	table := DefaultTable()
	table[LevelSafe][CategoryViolence] = 1.5
	if err := table.Validate(); err == nil {
		t.Error("expected error for threshold > 1")
	}
}
