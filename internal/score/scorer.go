// Package score implements the keyword/pattern heuristic behind the
// content policy category detectors. It is an explainable scorer, not a
// trained classifier. Detectors are instances of this primitive with
// different keyword lists, patterns, and weights.
package score

import (
	"regexp"
	"strings"
)

// Config parameterizes a single detector: the keywords and patterns to
// look for, and how much each contributes to the score.
type Config struct {
	Keywords      []string
	Patterns      []*regexp.Regexp
	KeywordWeight float64
	PatternWeight float64
}

// Score rates text against a detector config and returns a value in [0, 1].
//
// Each keyword occurrence adds KeywordWeight (repeated hits compound
// linearly). Each pattern adds PatternWeight once if it matches anywhere
// (binary, not per-occurrence). The sum is clamped to [0, 1].
func Score(text string, cfg Config) float64 {
	lower := strings.ToLower(text)

	var s float64
	for _, kw := range cfg.Keywords {
		s += float64(strings.Count(lower, kw)) * cfg.KeywordWeight
	}
	for _, re := range cfg.Patterns {
		if re.MatchString(lower) {
			s += cfg.PatternWeight
		}
	}

	if s > 1.0 {
		s = 1.0
	}
	if s < 0.0 {
		s = 0.0
	}
	return s
}

// CountHits returns the number of distinct keywords present in text.
// Matching is case-insensitive substring containment.
func CountHits(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// ContainsAny reports whether any keyword occurs in text and returns the
// first one that does.
func ContainsAny(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// MatchAny reports whether any pattern matches text and returns the
// pattern that did. Patterns are applied to the case-folded text.
func MatchAny(text string, patterns []*regexp.Regexp) (string, bool) {
	lower := strings.ToLower(text)
	for _, re := range patterns {
		if re.MatchString(lower) {
			return re.String(), true
		}
	}
	return "", false
}
