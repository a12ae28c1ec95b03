// Package session holds the conversational state for one logical session:
// chat history, user-provided context and the rolling conversation context
// (topics, entities, recent and unresolved queries, inferred preferences).
// The session is an explicit object passed by reference; switching tenants
// resets it so context never bleeds between unrelated corpora.
package session

import (
	"strings"
	"sync"
	"time"
)

// maxRecentQueries bounds the rolling query window.
const maxRecentQueries = 5

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
	Time    time.Time
}

// ContextEntry is a user-supplied fact with the time it was recorded.
type ContextEntry struct {
	Value     string
	Timestamp time.Time
}

// Session is safe for concurrent use.
type Session struct {
	mu          sync.Mutex
	messages    []Message
	userContext map[string]ContextEntry
	topics      map[string]struct{}
	entities    map[string]struct{}
	lastQueries []string
	unresolved  []string
	preferences map[string]string
}

// New returns an empty session.
func New() *Session {
	s := &Session{}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.messages = nil
	s.userContext = make(map[string]ContextEntry)
	s.topics = make(map[string]struct{})
	s.entities = make(map[string]struct{})
	s.lastQueries = nil
	s.unresolved = nil
	s.preferences = make(map[string]string)
}

// Reset clears all transient state. Called when the active tenant changes.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Append records a chat turn.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Content: content, Time: time.Now()})
}

// Messages returns a copy of the chat history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetUserContext stores a user-supplied fact under key.
func (s *Session) SetUserContext(key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userContext[key] = ContextEntry{Value: value, Timestamp: time.Now()}
}

// RelevantContext returns the user-context entries whose keys appear in the
// query, for inclusion in the prompt.
func (s *Session) RelevantContext(query string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)

	relevant := make(map[string]string)
	for key, entry := range s.userContext {
		keyLower := strings.ToLower(key)
		if strings.Contains(queryLower, keyLower) {
			relevant[key] = entry.Value
			continue
		}
		for _, w := range words {
			if strings.Contains(keyLower, w) {
				relevant[key] = entry.Value
				break
			}
		}
	}
	return relevant
}

// ObserveExchange updates the conversation context from one user/assistant
// exchange: topics, entities, the recent-query window, unresolved-query
// tracking and inferred preferences.
func (s *Session) ObserveExchange(userInput, response string) {
	topics, entities := ExtractTopicsAndEntities(userInput)
	prefs := InferPreferences(userInput)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range topics {
		s.topics[t] = struct{}{}
	}
	for _, e := range entities {
		s.entities[e] = struct{}{}
	}
	for k, v := range prefs {
		s.preferences[k] = v
	}

	s.lastQueries = append(s.lastQueries, userInput)
	if len(s.lastQueries) > maxRecentQueries {
		s.lastQueries = s.lastQueries[len(s.lastQueries)-maxRecentQueries:]
	}

	if response != "" && looksUnresolved(response) {
		s.unresolved = append(s.unresolved, userInput)
	}
}

// Topics returns the accumulated conversation topics.
func (s *Session) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

// RecentQueries returns up to n of the most recent queries, oldest first.
func (s *Session) RecentQueries(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.lastQueries) {
		n = len(s.lastQueries)
	}
	out := make([]string, n)
	copy(out, s.lastQueries[len(s.lastQueries)-n:])
	return out
}

// HasUnresolved reports whether earlier queries went unanswered.
func (s *Session) HasUnresolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unresolved) > 0
}

// looksUnresolved detects responses admitting the corpus had no answer.
func looksUnresolved(response string) bool {
	lower := strings.ToLower(response)
	for _, phrase := range []string{
		"don't know", "cannot answer", "no information", "not enough context",
	} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
