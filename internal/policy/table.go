package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Table maps each level to its per-category block thresholds. Content is
// blocked when a category score is strictly greater than the threshold;
// equal is allowed.
type Table map[Level]map[Category]float64

// DefaultTable returns the built-in threshold configuration.
//
// The illegal category does not monotonically relax: Unrestricted caps it
// at 0.3, below Research's 0.5.
func DefaultTable() Table {
	return Table{
		LevelSafe: {
			CategoryViolence:      0.1,
			CategoryAdult:         0.0,
			CategoryHateSpeech:    0.0,
			CategoryIllegal:       0.0,
			CategoryMedical:       0.3,
			CategoryPolitical:     0.2,
			CategoryControversial: 0.2,
			CategoryEducational:   1.0,
			CategoryTechnical:     1.0,
			CategoryCreative:      0.8,
		},
		LevelEducational: {
			CategoryViolence:      0.3,
			CategoryAdult:         0.1,
			CategoryHateSpeech:    0.1,
			CategoryIllegal:       0.2,
			CategoryMedical:       0.8,
			CategoryPolitical:     0.7,
			CategoryControversial: 0.6,
			CategoryEducational:   1.0,
			CategoryTechnical:     1.0,
			CategoryCreative:      1.0,
		},
		LevelResearch: {
			CategoryViolence:      0.6,
			CategoryAdult:         0.4,
			CategoryHateSpeech:    0.3,
			CategoryIllegal:       0.5,
			CategoryMedical:       1.0,
			CategoryPolitical:     1.0,
			CategoryControversial: 0.9,
			CategoryEducational:   1.0,
			CategoryTechnical:     1.0,
			CategoryCreative:      1.0,
		},
		LevelUnrestricted: {
			CategoryViolence:      0.8,
			CategoryAdult:         0.7,
			CategoryHateSpeech:    0.5,
			CategoryIllegal:       0.3,
			CategoryMedical:       1.0,
			CategoryPolitical:     1.0,
			CategoryControversial: 1.0,
			CategoryEducational:   1.0,
			CategoryTechnical:     1.0,
			CategoryCreative:      1.0,
		},
	}
}

// Validate checks that every level defines a threshold in [0, 1] for every
// category.
func (t Table) Validate() error {
	for _, level := range Levels {
		thresholds, ok := t[level]
		if !ok {
			return fmt.Errorf("policy table missing level %s", level)
		}
		for _, cat := range Categories {
			v, ok := thresholds[cat]
			if !ok {
				return fmt.Errorf("policy table missing %s threshold for level %s", cat, level)
			}
			if v < 0 || v > 1 {
				return fmt.Errorf("threshold %s/%s out of range: %f", level, cat, v)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for level, thresholds := range t {
		m := make(map[Category]float64, len(thresholds))
		for cat, v := range thresholds {
			m[cat] = v
		}
		out[level] = m
	}
	return out
}

// LoadTable reads a threshold table from a YAML file. A missing file falls
// back to the defaults; invalid YAML or an incomplete table is an error.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTable(), nil
		}
		return nil, fmt.Errorf("failed to read policy table: %w", err)
	}

	var raw map[string]map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse policy table: %w", err)
	}

	// Overlay on defaults so a partial file only overrides what it names.
	table := DefaultTable()
	for levelName, thresholds := range raw {
		level, err := ParseLevel(levelName)
		if err != nil {
			return nil, err
		}
		for catName, v := range thresholds {
			cat, err := ParseCategory(catName)
			if err != nil {
				return nil, err
			}
			table[level][cat] = v
		}
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
