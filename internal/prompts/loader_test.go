package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get("agent.json", "agent-system")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "find_matches")
	assert.Contains(t, prompt, "{{.MaxCalls}}")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get("agent.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_AllAgentKeys(t *testing.T) {
	for _, key := range []string{"agent-system", "agent-approved", "agent-summary", "clarify-skills", "no-matches", "approval-prompt", "drafted"} {
		assert.NotPanics(t, func() {
			assert.NotEmpty(t, MustGet("agent.json", key))
		}, key)
	}
}

func TestFormat(t *testing.T) {
	template := "Best match: {{.Name}} ({{.Similarity}})"
	data := map[string]string{
		"Name":       "Alice",
		"Similarity": "0.8165",
	}

	result := Format(template, data)
	assert.Equal(t, "Best match: Alice (0.8165)", result)
}

func TestFormat_MissingKeyLeavesPlaceholder(t *testing.T) {
	result := Format("Hello {{.Name}} from {{.Team}}", map[string]string{"Name": "Bob"})
	assert.Equal(t, "Hello Bob from {{.Team}}", result)
}

func TestFormat_ValuesAreNotExpanded(t *testing.T) {
	data := map[string]string{
		"Name": "{{.ID}}",
		"ID":   "42",
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, "{{.ID}} (42)", Format("{{.Name}} ({{.ID}})", data))
	}
}

func TestRender(t *testing.T) {
	msg := Render("agent.json", "drafted", map[string]string{"Name": "Alice Adams"})
	assert.Equal(t, "Drafted an introduction to Alice Adams. Review and send it yourself; nothing has been sent.", msg)

	assert.Panics(t, func() { Render("agent.json", "missing", nil) })
}
