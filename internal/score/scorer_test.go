package score

import (
	"regexp"
	"testing"
)

func TestKeywordOccurrencesCompound(t *testing.T) {
	cfg := Config{
		Keywords:      []string{"weapon"},
		KeywordWeight: 0.1,
	}

	single := Score("a weapon was found", cfg)
	if single < 0.09 || single > 0.11 {
		t.Errorf("expected ~0.1 for one hit, got %f", single)
	}

	triple := Score("weapon weapon weapon", cfg)
	if triple < 0.29 || triple > 0.31 {
		t.Errorf("expected ~0.3 for three hits, got %f", triple)
	}
}

func TestPatternIsBinary(t *testing.T) {
	cfg := Config{
		Patterns:      []*regexp.Regexp{regexp.MustCompile(`\bhow\s+to\s+kill\b`)},
		PatternWeight: 0.5,
	}

	once := Score("how to kill time", cfg)
	twice := Score("how to kill time, how to kill boredom", cfg)

	if once != twice {
		t.Errorf("pattern weight must apply once per pattern: %f vs %f", once, twice)
	}
	if once < 0.49 || once > 0.51 {
		t.Errorf("expected ~0.5, got %f", once)
	}
}

func TestScoreClampedToOne(t *testing.T) {
	cfg := Config{
		Keywords:      []string{"code"},
		KeywordWeight: 0.4,
	}
	s := Score("code code code code code", cfg)
	if s != 1.0 {
		t.Errorf("expected clamp to 1.0, got %f", s)
	}
}

func TestScoreCaseFolds(t *testing.T) {
	cfg := Config{
		Keywords:      []string{"violence"},
		KeywordWeight: 0.2,
	}
	if Score("VIOLENCE everywhere", cfg) == 0 {
		t.Error("expected case-insensitive keyword match")
	}
}

func TestCountHitsDistinct(t *testing.T) {
	keywords := []string{"keygen", "warez", "serial number"}
	n := CountHits("keygen keygen and warez here", keywords)
	if n != 2 {
		t.Errorf("expected 2 distinct hits, got %d", n)
	}
}

func TestMatchAnyReturnsPattern(t *testing.T) {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\b(download|crack|keygen|serial)\b`),
	}
	p, ok := MatchAny("where to DOWNLOAD this", patterns)
	if !ok {
		t.Fatal("expected a pattern match")
	}
	if p == "" {
		t.Error("expected matched pattern string")
	}
}

func TestEmptyTextScoresZero(t *testing.T) {
	cfg := Config{
		Keywords:      []string{"anything"},
		Patterns:      []*regexp.Regexp{regexp.MustCompile(`x`)},
		KeywordWeight: 0.5,
		PatternWeight: 0.5,
	}
	if s := Score("", cfg); s != 0 {
		t.Errorf("expected 0 for empty text, got %f", s)
	}
}
