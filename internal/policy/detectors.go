package policy

import (
	"regexp"

	"github.com/RageBober/mcp-gpt-oss/internal/score"
)

// phrase compiles alternates with explicit non-letter boundaries. RE2's
// \b is ASCII-only and never fires next to Cyrillic, so the bilingual
// phrase patterns cannot use it.
func phrase(alternates string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:` + alternates + `)(?:[^\p{L}\p{N}_]|$)`)
}

// DefaultDetectors returns the per-category scorer configurations. Keyword
// lists are bilingual (Russian and English, the system's two configured
// languages). Adding a category is a data change, not a code change.
func DefaultDetectors() map[Category]score.Config {
	return map[Category]score.Config{
		CategoryViolence: {
			Keywords: []string{
				"убить", "убийство", "смерть", "кровь", "драка", "война", "оружие",
				"пытки", "боль", "страдание", "жестокость", "насилие", "избиение",
				"kill", "murder", "death", "blood", "fight", "war", "weapon",
				"torture", "pain", "suffering", "cruelty", "violence", "beating",
			},
			Patterns: []*regexp.Regexp{
				phrase(`как\s+убить|how\s+to\s+kill`),
				phrase(`сделать\s+бомбу|make\s+bomb`),
				phrase(`причинить\s+боль|cause\s+pain`),
			},
			KeywordWeight: 0.1,
			PatternWeight: 0.5,
		},
		CategoryAdult: {
			Keywords: []string{
				"секс", "эротика", "порно", "голый", "обнаженный", "интим",
				"sex", "erotic", "porn", "nude", "naked", "intimate", "adult",
			},
			KeywordWeight: 0.15,
		},
		CategoryHateSpeech: {
			Keywords: []string{
				"расизм", "фашизм", "нацизм", "ненависть", "дискриминация",
				"racism", "fascism", "nazism", "hatred", "discrimination", "bigotry",
			},
			Patterns: []*regexp.Regexp{
				phrase(`все\s+\S+\s+должны\s+умереть|all\s+\w+\s+should\s+die`),
				phrase(`я\s+ненавижу\s+всех|i\s+hate\s+all`),
			},
			KeywordWeight: 0.2,
			PatternWeight: 0.7,
		},
		CategoryIllegal: {
			Keywords: []string{
				"наркотики", "взлом", "кража", "мошенничество", "подделка",
				"drugs", "hack", "theft", "fraud", "counterfeit", "piracy",
			},
			Patterns: []*regexp.Regexp{
				phrase(`как\s+взломать|how\s+to\s+hack`),
				phrase(`купить\s+наркотики|buy\s+drugs`),
				phrase(`(?:сделать\s+поддельные|make\s+fake)\s+(?:документы|documents)`),
			},
			KeywordWeight: 0.1,
			PatternWeight: 0.6,
		},
		CategoryMedical: {
			Keywords: []string{
				"болезнь", "лечение", "симптом", "диагноз", "медицина", "врач",
				"disease", "treatment", "symptom", "diagnosis", "medicine", "doctor",
				"health", "medical", "therapy", "medication", "surgery",
			},
			KeywordWeight: 0.05,
		},
		CategoryPolitical: {
			Keywords: []string{
				"политика", "правительство", "выборы", "президент", "партия",
				"politics", "government", "election", "president", "party",
				"democracy", "republican", "democrat", "conservative", "liberal",
			},
			KeywordWeight: 0.05,
		},
		CategoryControversial: {
			Keywords: []string{
				"контроверсия", "спорный", "скандал", "протест", "конфликт",
				"controversy", "controversial", "scandal", "protest", "conflict",
				"debate", "dispute", "argument",
			},
			KeywordWeight: 0.05,
		},
		CategoryEducational: {
			Keywords: []string{
				"учеба", "образование", "урок", "лекция", "курс", "обучение",
				"study", "education", "lesson", "lecture", "course", "learning",
				"tutorial", "guide", "explain", "teach", "academic",
			},
			KeywordWeight: 0.1,
		},
		CategoryTechnical: {
			Keywords: []string{
				"программирование", "код", "алгоритм", "база данных", "сеть",
				"programming", "code", "algorithm", "database", "network",
				"software", "hardware", "technical", "engineering", "computer",
			},
			KeywordWeight: 0.1,
		},
		CategoryCreative: {
			Keywords: []string{
				"искусство", "творчество", "поэзия", "музыка", "литература",
				"art", "creative", "poetry", "music", "literature",
				"story", "novel", "painting", "drawing", "design",
			},
			KeywordWeight: 0.1,
		},
	}
}
