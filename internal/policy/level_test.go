package policy

import "testing"

func TestLevelOrdering(t *testing.T) {
	if !(LevelSafe < LevelEducational && LevelEducational < LevelResearch && LevelResearch < LevelUnrestricted) {
		t.Error("levels must be ordered safe < educational < research < unrestricted")
	}
}

func TestLevelRoundTrip(t *testing.T) {
	for _, l := range Levels {
		parsed, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("parse %q: %v", l.String(), err)
		}
		if parsed != l {
			t.Errorf("round trip mismatch: %s -> %s", l, parsed)
		}
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	if _, err := ParseLevel("godmode"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestElevatedLevelsRequireAuthorization(t *testing.T) {
	if LevelSafe.RequiresAuthorization() || LevelEducational.RequiresAuthorization() {
		t.Error("safe and educational must not require authorization")
	}
	if !LevelResearch.RequiresAuthorization() || !LevelUnrestricted.RequiresAuthorization() {
		t.Error("research and unrestricted must require authorization")
	}
}

func TestParseCategoryCoversClosedSet(t *testing.T) {
	if len(Categories) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(Categories))
	}
	for _, c := range Categories {
		parsed, err := ParseCategory(string(c))
		if err != nil {
			t.Fatalf("parse %q: %v", c, err)
		}
		if parsed != c {
			t.Errorf("round trip mismatch: %s", c)
		}
	}
	if _, err := ParseCategory("astrology"); err == nil {
		t.Error("expected error for unknown category")
	}
}
