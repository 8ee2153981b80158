package webaccess

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultFilters returns the unsafe-keyword categories applied to both
// outgoing queries and fetched page text.
func defaultFilters() map[string][]string {
	return map[string][]string{
		"malware": {
			"download crack", "free hack", "keygen", "serial number",
			"torrent download", "pirated software", "warez",
		},
		"adult": {
			"explicit", "nsfw", "adult content", "pornography",
		},
		"illegal": {
			"how to make bomb", "illegal drugs", "hire hitman",
			"fake documents", "credit card fraud",
		},
		"hate": {
			"hate speech", "nazi", "terrorist", "extremist content",
		},
	}
}

// suspiciousPatterns matches query phrasings that signal hacking,
// piracy, illegal activity, or dangerous-instruction requests.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(hack|exploit|vulnerability)\s+\w+`),
	regexp.MustCompile(`\b(download|crack|keygen|serial)\b`),
	regexp.MustCompile(`\b(illegal|unlawful|criminal)\s+\w+`),
	regexp.MustCompile(`\b(bomb|weapon|drug)\s+(recipe|tutorial|guide)`),
}

// checkQuery decides whether a search query is safe to execute.
// Returns false with a reason on any keyword or pattern hit.
func checkQuery(query string, filters map[string][]string) (bool, string) {
	if strings.TrimSpace(query) == "" {
		return false, "Empty query"
	}

	lower := strings.ToLower(query)

	for category, keywords := range filters {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return false, fmt.Sprintf("Query blocked: contains %s content", category)
			}
		}
	}

	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(lower) {
			return false, "Query blocked: matches suspicious pattern"
		}
	}

	return true, "Query is safe"
}

// filterContent applies safety and quality filters to extracted page
// text. A category with more than two distinct keyword hits, an
// implausibly short body, or a low unique-word ratio all reject the
// page. Returns false with the rejection reason.
func filterContent(content string, filters map[string][]string) (bool, string) {
	if strings.TrimSpace(content) == "" {
		return false, "Empty content"
	}

	lower := strings.ToLower(content)

	for category, keywords := range filters {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > 2 {
			return false, fmt.Sprintf("Content blocked: high %s content density", category)
		}
	}

	if len(content) < 50 {
		return false, "Content too short"
	}

	// Repetition heuristic, only meaningful with enough words.
	words := strings.Fields(lower)
	if len(words) > 30 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique))/float64(len(words)) < 0.3 {
			return false, "Content appears to be spam or repetitive"
		}
	}

	return true, "Content is safe"
}
