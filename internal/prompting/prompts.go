// Package prompting assembles the system and user prompts sent to the
// language model, adapting both to what the conversation has shown so far.
package prompting

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hexfield/ragd/internal/session"
	"github.com/hexfield/ragd/internal/store"
)

const basePrompt = "You are a helpful and knowledgeable AI assistant. Answer based on the provided context."

// AdaptiveSystemPrompt shapes the system prompt around the topics the
// conversation has touched and any questions that went unanswered.
func AdaptiveSystemPrompt(sess *session.Session) string {
	parts := []string{basePrompt}

	for _, topic := range sess.Topics() {
		switch topic {
		case "technical":
			parts = append(parts, "Provide technically accurate and detailed explanations.")
		case "business":
			parts = append(parts, "Focus on business value and practical applications.")
		case "support":
			parts = append(parts, "Offer troubleshooting steps and direct solutions to problems.")
		}
	}

	if sess.HasUnresolved() {
		parts = append(parts, "The user has previously asked questions I couldn't fully answer. "+
			"If the current query relates to these topics, admit limitations clearly.")
	}

	parts = append(parts,
		"Cite sources using [Source X] notation, corresponding to the numbered sources.",
		"If information is not in the provided context, clearly state that.")

	return strings.Join(parts, " ")
}

// sourceTitle picks the friendliest label a result's metadata offers.
func sourceTitle(meta store.Metadata, ordinal int) string {
	switch {
	case meta.Title != "":
		return meta.Title
	case meta.Filename != "":
		return meta.Filename
	case meta.URL != "":
		return meta.URL
	default:
		return fmt.Sprintf("Source %d", ordinal)
	}
}

// UserPrompt builds the grounded user prompt: the query, the retrieved
// passages as numbered cited sources, any user facts relevant to the query,
// and a short window of recent queries.
func UserPrompt(query string, results []store.Result, sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\n", query)

	if len(results) > 0 {
		b.WriteString("Relevant Information:\n")
		for i, r := range results {
			fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, sourceTitle(r.Metadata, i+1), r.Content)
		}
	} else {
		b.WriteString("Relevant Information: None provided.\n\n")
	}

	userContext := sess.RelevantContext(query)
	if len(userContext) > 0 {
		b.WriteString("User-specific Information:\n")
		keys := make([]string, 0, len(userContext))
		for k := range userContext {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, userContext[k])
		}
		b.WriteString("\n")
	}

	recent := sess.RecentQueries(3)
	if len(recent) > 1 {
		b.WriteString("Recent conversation context:\n")
		for i, q := range recent {
			fmt.Fprintf(&b, "- Previous query %d: %s\n", i+1, q)
		}
		b.WriteString("\n")
	}

	b.WriteString("Based on all the above information, please answer the user's query. " +
		"Remember to cite your sources and indicate if information is unavailable in the context.")

	return b.String()
}

var wordRe = regexp.MustCompile(`\b\w+\b`)

var followUpStopwords = map[string]struct{}{
	"should": {}, "would": {}, "could": {}, "because": {}, "about": {},
}

var uncertaintyPhrases = []string{
	"i don't know",
	"not enough information",
	"can't determine",
}

// FollowUpQuestions suggests up to three follow-up questions from the
// query, the model's answer and the retrieved passages.
func FollowUpQuestions(query, response string, results []store.Result) []string {
	var topics []string
	seen := map[string]struct{}{}
	for _, r := range results {
		for _, word := range wordRe.FindAllString(strings.ToLower(r.Content), -1) {
			if len(word) <= 5 {
				continue
			}
			if _, stop := followUpStopwords[word]; stop {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			topics = append(topics, word)
		}
	}

	var followUps []string
	lowerQuery := strings.ToLower(query)
	lowerResponse := strings.ToLower(response)

	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lowerResponse, phrase) {
			followUps = append(followUps, "Would you like me to explain what information would help answer your question better?")
			break
		}
	}

	if strings.Contains(lowerQuery, "how") {
		for _, w := range []string{"do", "can", "make", "use", "implement"} {
			if strings.Contains(lowerQuery, w) {
				followUps = append(followUps, "Would you like me to provide more detailed step-by-step instructions?")
				break
			}
		}
	}

	for _, w := range []string{"compare", "difference", "versus", "vs"} {
		if strings.Contains(lowerQuery, w) {
			followUps = append(followUps, "Would you like me to compare specific aspects in more detail?")
			break
		}
	}

	if len(topics) >= 2 {
		followUps = append(followUps,
			fmt.Sprintf("Would you like to know more about the relationship between %s and %s?", topics[0], topics[1]))
	}

	if len(followUps) > 3 {
		followUps = followUps[:3]
	}
	return followUps
}
