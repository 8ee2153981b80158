package policy

import (
	"encoding/json"
	"testing"
	"time"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestEngine(t)
	admin := src.GenerateToken("admin", LevelUnrestricted, time.Hour)

	if err := src.SetLevel(LevelResearch, admin, "study"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	if err := src.AddTemporaryOverride("penetration test scenario", time.Hour, "red team", admin); err != nil {
		t.Fatalf("add override: %v", err)
	}

	snap := src.ExportConfig()

	// Snapshot must survive JSON serialization, the operator-tool transport.
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var decoded ConfigSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	dst := newTestEngine(t)
	dstAdmin := dst.GenerateToken("admin", LevelUnrestricted, time.Hour)
	if err := dst.ImportConfig(decoded, dstAdmin); err != nil {
		t.Fatalf("import: %v", err)
	}

	if dst.Level() != LevelResearch {
		t.Errorf("expected research level after import, got %s", dst.Level())
	}
	if dst.ActiveOverrides() != 1 {
		t.Errorf("expected 1 override after import, got %d", dst.ActiveOverrides())
	}

	reExported := dst.ExportConfig()
	for _, level := range Levels {
		for _, cat := range Categories {
			got := reExported.Policies[level.String()][string(cat)]
			want := snap.Policies[level.String()][string(cat)]
			if got != want {
				t.Errorf("threshold %s/%s changed across round trip: %f != %f", level, cat, got, want)
			}
		}
	}
}

func TestImportRequiresAuthorization(t *testing.T) {
	e := newTestEngine(t)
	snap := e.ExportConfig()

	if err := e.ImportConfig(snap, ""); err == nil {
		t.Error("import without token must be rejected")
	}

	eduToken := e.GenerateToken("student", LevelEducational, time.Hour)
	if err := e.ImportConfig(snap, eduToken); err == nil {
		t.Error("import with educational token must be rejected")
	}
}

func TestThresholdImportRequiresUnrestricted(t *testing.T) {
	e := newTestEngine(t)
	snap := e.ExportConfig()

	research := e.GenerateToken("researcher", LevelResearch, time.Hour)
	if err := e.ImportConfig(snap, research); err == nil {
		t.Error("threshold import with research token must be rejected")
	}

	// Without thresholds, research suffices.
	snap.Policies = nil
	snap.ActiveOverrides = nil
	snap.CurrentLevel = "educational"
	if err := e.ImportConfig(snap, research); err != nil {
		t.Errorf("level-only import with research token rejected: %v", err)
	}
	if e.Level() != LevelEducational {
		t.Errorf("expected educational level, got %s", e.Level())
	}
}

func TestExportSkipsExpiredOverrides(t *testing.T) {
	e := newTestEngine(t)
	token := e.GenerateToken("researcher", LevelResearch, time.Hour)
	if err := e.AddTemporaryOverride("stale pattern", time.Minute, "short", token); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	e.now = func() time.Time { return base.Add(time.Hour) }

	snap := e.ExportConfig()
	if len(snap.ActiveOverrides) != 0 {
		t.Errorf("expired overrides must not be exported, got %d", len(snap.ActiveOverrides))
	}
}
