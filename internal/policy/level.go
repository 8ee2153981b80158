// Package policy implements the adaptive content policy engine: an ordered
// hierarchy of restriction levels, per-category score thresholds, session
// tokens gating elevated levels, and temporary pattern-based overrides.
// Every evaluation is appended to a durable audit store.
package policy

import "fmt"

// Level is an ordered restriction level. Higher values are more permissive
// and require authorization to enter.
type Level int

const (
	LevelSafe Level = iota
	LevelEducational
	LevelResearch
	LevelUnrestricted
)

// Levels lists all levels in hierarchy order.
var Levels = []Level{LevelSafe, LevelEducational, LevelResearch, LevelUnrestricted}

func (l Level) String() string {
	switch l {
	case LevelSafe:
		return "safe"
	case LevelEducational:
		return "educational"
	case LevelResearch:
		return "research"
	case LevelUnrestricted:
		return "unrestricted"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a level name to its Level. Unknown names are an error.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "safe":
		return LevelSafe, nil
	case "educational":
		return LevelEducational, nil
	case "research":
		return LevelResearch, nil
	case "unrestricted":
		return LevelUnrestricted, nil
	default:
		return LevelSafe, fmt.Errorf("unknown policy level %q", s)
	}
}

// RequiresAuthorization reports whether entering the level needs a valid
// token. Safe and Educational are freely selectable.
func (l Level) RequiresAuthorization() bool {
	return l >= LevelResearch
}

// Category is a topical dimension of content risk or utility, scored
// independently by its own detector.
type Category string

const (
	CategoryViolence      Category = "violence"
	CategoryAdult         Category = "adult"
	CategoryHateSpeech    Category = "hate_speech"
	CategoryIllegal       Category = "illegal"
	CategoryMedical       Category = "medical"
	CategoryPolitical     Category = "political"
	CategoryControversial Category = "controversial"
	CategoryEducational   Category = "educational"
	CategoryTechnical     Category = "technical"
	CategoryCreative      Category = "creative"
)

// Categories lists the closed category set.
var Categories = []Category{
	CategoryViolence,
	CategoryAdult,
	CategoryHateSpeech,
	CategoryIllegal,
	CategoryMedical,
	CategoryPolitical,
	CategoryControversial,
	CategoryEducational,
	CategoryTechnical,
	CategoryCreative,
}

// ParseCategory maps a category name to its Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown content category %q", s)
}
