package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset_ClearsEverything(t *testing.T) {
	s := New()
	s.Append("user", "how do I debug this error?")
	s.SetUserContext("team", "platform engineering")
	s.ObserveExchange("how do I debug this error?", "Check the logs.")

	s.Reset()

	assert.Empty(t, s.Messages())
	assert.Empty(t, s.Topics())
	assert.Empty(t, s.RecentQueries(0))
	assert.False(t, s.HasUnresolved())
	assert.Empty(t, s.RelevantContext("what does my team do?"))
}

func TestObserveExchange_AccumulatesTopics(t *testing.T) {
	s := New()
	s.ObserveExchange("my code throws an error in this function", "Try recovering.")
	s.ObserveExchange("what is our market strategy?", "It focuses on customers.")

	topics := s.Topics()
	assert.Contains(t, topics, "technical")
	assert.Contains(t, topics, "business")
}

func TestObserveExchange_QueryWindowIsBounded(t *testing.T) {
	s := New()
	queries := []string{"one", "two", "three", "four", "five", "six", "seven"}
	for _, q := range queries {
		s.ObserveExchange(q, "answer")
	}

	recent := s.RecentQueries(0)
	require.Len(t, recent, maxRecentQueries)
	assert.Equal(t, []string{"three", "four", "five", "six", "seven"}, recent)

	assert.Equal(t, []string{"six", "seven"}, s.RecentQueries(2))
}

func TestObserveExchange_TracksUnresolved(t *testing.T) {
	s := New()
	s.ObserveExchange("what color is the server?", "I'm sorry, I don't know that.")
	assert.True(t, s.HasUnresolved())

	s2 := New()
	s2.ObserveExchange("what is 2+2?", "It is 4.")
	assert.False(t, s2.HasUnresolved())
}

func TestRelevantContext_MatchesByKeyword(t *testing.T) {
	s := New()
	s.SetUserContext("role", "data engineer")
	s.SetUserContext("favorite editor", "vim")

	ctx := s.RelevantContext("what does my role involve?")
	require.Len(t, ctx, 1)
	assert.Equal(t, "data engineer", ctx["role"])

	ctx = s.RelevantContext("which editor should I use?")
	require.Len(t, ctx, 1)
	assert.Equal(t, "vim", ctx["favorite editor"])

	assert.Empty(t, s.RelevantContext("completely unrelated question"))
}

func TestSetUserContext_IgnoresBlankInput(t *testing.T) {
	s := New()
	s.SetUserContext("  ", "value")
	s.SetUserContext("key", "  ")
	assert.Empty(t, s.RelevantContext("key value"))
}

func TestExtractTopicsAndEntities(t *testing.T) {
	topics, entities := ExtractTopicsAndEntities("Does Qdrant support the gRPC API in Kubernetes?")

	assert.Contains(t, topics, "technical")
	assert.Contains(t, entities, "Qdrant")
	assert.Contains(t, entities, "Kubernetes")
	assert.NotContains(t, entities, "support")
}

func TestExtractTopicsAndEntities_DedupesEntities(t *testing.T) {
	_, entities := ExtractTopicsAndEntities("Qdrant talks to Qdrant")
	count := 0
	for _, e := range entities {
		if e == "Qdrant" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestInferPreferences(t *testing.T) {
	prefs := InferPreferences("I prefer concise answers. I'm interested in vector databases; I don't like long preambles.")

	assert.Equal(t, "preference", prefs["concise answers"])
	assert.Equal(t, "interest", prefs["vector databases"])
	assert.Equal(t, "dislike", prefs["long preambles"])
}

func TestLooksUnresolved(t *testing.T) {
	assert.True(t, looksUnresolved("I don't know the answer to that."))
	assert.True(t, looksUnresolved("There is no information about this in the corpus."))
	assert.False(t, looksUnresolved("The answer is 42."))
}
