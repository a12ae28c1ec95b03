package session

import (
	"regexp"
	"strings"
	"unicode"
)

// topicKeywords maps broad conversation topics to trigger words.
var topicKeywords = map[string][]string{
	"technical":   {"code", "programming", "debug", "error", "function", "api"},
	"business":    {"company", "market", "strategy", "customer", "product"},
	"support":     {"help", "issue", "problem", "ticket", "assistance"},
	"information": {"what is", "tell me about", "explain", "information", "details", "how to"},
}

var preferencePatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`(?i)\b(?:prefer|like|want)s?\s+([^.?!;]+)`), "preference"},
	{regexp.MustCompile(`(?i)\binterested in\s+([^.?!;]+)`), "interest"},
	{regexp.MustCompile(`(?i)\bdon't (?:like|want|need)\s+([^.?!;]+)`), "dislike"},
}

// ExtractTopicsAndEntities derives coarse topics and capitalized-word
// entities from user input. This is a keyword heuristic, not NLP.
func ExtractTopicsAndEntities(text string) (topics, entities []string) {
	lower := strings.ToLower(text)
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}

	seen := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		r := []rune(word)
		if len(r) < 2 || !unicode.IsUpper(r[0]) {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		entities = append(entities, word)
	}

	return topics, entities
}

// InferPreferences pulls explicitly stated likes, interests and dislikes
// out of a query.
func InferPreferences(query string) map[string]string {
	prefs := make(map[string]string)
	for _, p := range preferencePatterns {
		for _, m := range p.re.FindAllStringSubmatch(query, -1) {
			if subject := strings.TrimSpace(m[1]); subject != "" {
				prefs[subject] = p.kind
			}
		}
	}
	return prefs
}
