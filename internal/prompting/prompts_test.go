package prompting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfield/ragd/internal/session"
	"github.com/hexfield/ragd/internal/store"
)

func TestAdaptiveSystemPrompt_Base(t *testing.T) {
	prompt := AdaptiveSystemPrompt(session.New())

	assert.Contains(t, prompt, "helpful and knowledgeable")
	assert.Contains(t, prompt, "[Source X]")
	assert.Contains(t, prompt, "clearly state that")
	assert.NotContains(t, prompt, "admit limitations")
}

func TestAdaptiveSystemPrompt_TechnicalTopic(t *testing.T) {
	sess := session.New()
	sess.ObserveExchange("why does this function throw an error?", "Because of nil input.")

	prompt := AdaptiveSystemPrompt(sess)
	assert.Contains(t, prompt, "technically accurate")
}

func TestAdaptiveSystemPrompt_Unresolved(t *testing.T) {
	sess := session.New()
	sess.ObserveExchange("what is the meaning of life?", "I don't know based on this corpus.")

	prompt := AdaptiveSystemPrompt(sess)
	assert.Contains(t, prompt, "admit limitations")
}

func TestUserPrompt_CitesNumberedSources(t *testing.T) {
	results := []store.Result{
		{Content: "First passage body.", Metadata: store.Metadata{Title: "Guide"}},
		{Content: "Second passage body.", Metadata: store.Metadata{Filename: "notes.txt"}},
		{Content: "Third passage body.", Metadata: store.Metadata{URL: "https://example.com/x"}},
	}

	prompt := UserPrompt("how does it work?", results, session.New())

	assert.Contains(t, prompt, "User query: how does it work?")
	assert.Contains(t, prompt, "[Source 1: Guide]")
	assert.Contains(t, prompt, "[Source 2: notes.txt]")
	assert.Contains(t, prompt, "[Source 3: https://example.com/x]")
	assert.Contains(t, prompt, "First passage body.")

	// Source blocks appear in retrieval order.
	assert.Less(t, strings.Index(prompt, "[Source 1"), strings.Index(prompt, "[Source 2"))
}

func TestUserPrompt_NoResults(t *testing.T) {
	prompt := UserPrompt("anything", nil, session.New())
	assert.Contains(t, prompt, "Relevant Information: None provided.")
}

func TestUserPrompt_AnonymousSourceFallback(t *testing.T) {
	results := []store.Result{{Content: "orphan text", Metadata: store.Metadata{}}}
	prompt := UserPrompt("q", results, session.New())
	assert.Contains(t, prompt, "[Source 1: Source 1]")
}

func TestUserPrompt_IncludesRelevantUserContext(t *testing.T) {
	sess := session.New()
	sess.SetUserContext("deployment region", "eu-west-1")

	prompt := UserPrompt("which deployment should I check?", nil, sess)
	assert.Contains(t, prompt, "User-specific Information:")
	assert.Contains(t, prompt, "deployment region: eu-west-1")
}

func TestUserPrompt_RecentQueriesNeedHistory(t *testing.T) {
	sess := session.New()
	sess.ObserveExchange("only one earlier query", "answer")

	// A single prior query is not yet conversation context.
	prompt := UserPrompt("follow-up", nil, sess)
	assert.NotContains(t, prompt, "Recent conversation context:")

	sess.ObserveExchange("a second query", "answer")
	prompt = UserPrompt("follow-up", nil, sess)
	assert.Contains(t, prompt, "Recent conversation context:")
	assert.Contains(t, prompt, "only one earlier query")
}

func TestFollowUpQuestions_Uncertainty(t *testing.T) {
	followUps := FollowUpQuestions("where is the config?", "I don't know from the given context.", nil)
	require.NotEmpty(t, followUps)
	assert.Contains(t, followUps[0], "help answer your question better")
}

func TestFollowUpQuestions_HowTo(t *testing.T) {
	followUps := FollowUpQuestions("how do I configure the index?", "Set the host and port.", nil)
	require.NotEmpty(t, followUps)
	assert.Contains(t, followUps[0], "step-by-step")
}

func TestFollowUpQuestions_Comparative(t *testing.T) {
	followUps := FollowUpQuestions("what is the difference between dense and sparse?", "Dense uses embeddings.", nil)
	require.NotEmpty(t, followUps)
	assert.Contains(t, followUps[0], "compare specific aspects")
}

func TestFollowUpQuestions_TopicPair(t *testing.T) {
	results := []store.Result{
		{Content: "embeddings capture semantic similarity between documents"},
	}
	followUps := FollowUpQuestions("tell me more", "Sure.", results)
	require.NotEmpty(t, followUps)
	assert.Contains(t, followUps[len(followUps)-1], "relationship between")
}

func TestFollowUpQuestions_CappedAtThree(t *testing.T) {
	results := []store.Result{
		{Content: "embeddings retrieval ranking similarity thresholds"},
	}
	followUps := FollowUpQuestions(
		"how do I compare the difference and use both?",
		"I don't know, not enough information.",
		results)
	assert.LessOrEqual(t, len(followUps), 3)
	assert.Len(t, followUps, 3)
}

func TestFollowUpQuestions_NoTriggers(t *testing.T) {
	followUps := FollowUpQuestions("hello", "Hi there.", nil)
	assert.Empty(t, followUps)
}
