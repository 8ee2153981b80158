package assistant

import (
	"regexp"
	"strings"
)

// webTriggers are the phrasings, in both configured languages, that
// signal the user wants fresh information from the web.
var webTriggers = []string{
	"найди в интернете", "поищи информацию", "что нового", "последние новости",
	"актуальная информация", "свежие данные", "недавние события",
	"текущая ситуация", "современное состояние", "на сегодняшний день",

	"search the internet", "look up online", "latest news", "recent information",
	"current data", "up to date", "what's new", "recent developments",
	"latest updates", "current situation", "recent events",
}

// queryPatterns lift the search subject out of a trigger phrase.
var queryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)найди в интернете\s+(.+?)(?:\.|$|\?)`),
	regexp.MustCompile(`(?i)поищи информацию о\s+(.+?)(?:\.|$|\?)`),
	regexp.MustCompile(`(?i)что нового о\s+(.+?)(?:\.|$|\?)`),
	regexp.MustCompile(`(?i)актуальная информация о\s+(.+?)(?:\.|$|\?)`),
	regexp.MustCompile(`(?i)search for\s+(.+?)(?:\.|$|\?)`),
	regexp.MustCompile(`(?i)look up\s+(.+?)(?:\.|$|\?)`),
	regexp.MustCompile(`(?i)find information about\s+(.+?)(?:\.|$|\?)`),
}

// NeedsWebSearch reports whether a message asks for a web lookup.
func NeedsWebSearch(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range webTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// ExtractSearchQuery pulls the search subject out of a message. When no
// trigger pattern captures a subject, the whole message is used,
// truncated to a sane query length.
func ExtractSearchQuery(message string) string {
	for _, pattern := range queryPatterns {
		if m := pattern.FindStringSubmatch(message); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	q := strings.TrimSpace(message)
	return truncate(q, 200)
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// sequence the way a byte slice would.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
