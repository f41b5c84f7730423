package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCleanJSONBlock_PreambleText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before JSON object",
			input:    "As requested, here is the JSON:\n{\"state\": \"idle\"}",
			expected: `{"state": "idle"}`,
		},
		{
			name:     "conversational preamble",
			input:    "I searched for candidates and found two strong matches. Here's the structured output:\n\n{\"message\": \"Found 2\", \"state\": \"awaiting_approval\"}",
			expected: `{"message": "Found 2", "state": "awaiting_approval"}`,
		},
		{
			name:     "preamble with multiple sentences",
			input:    "I matched the request. Alice fits best. Here is the result: {\"skills\": [\"react\"]}",
			expected: `{"skills": ["react"]}`,
		},
		{
			name:     "preamble before JSON array",
			input:    "Here are the items:\n[\"item1\", \"item2\"]",
			expected: `["item1", "item2"]`,
		},
		{
			name:     "JSON with trailing text",
			input:    "{\"key\": \"value\"}\n\nLet me know if you need anything else!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "nested objects",
			input:    "Output:\n{\"outer\": {\"inner\": \"value\"}}",
			expected: `{"outer": {"inner": "value"}}`,
		},
		{
			name:     "JSON with escaped quotes",
			input:    "Result: {\"message\": \"He said \\\"hello\\\"\"}",
			expected: `{"message": "He said \"hello\""}`,
		},
		{
			name:     "deeply nested",
			input:    "Here: {\"a\": {\"b\": {\"c\": {\"d\": \"deep\"}}}}",
			expected: `{"a": {"b": {"c": {"d": "deep"}}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple object",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "nested objects",
			input:    `{"outer": {"inner": "value"}}`,
			expected: `{"outer": {"inner": "value"}}`,
		},
		{
			name:     "object with array",
			input:    `{"items": [1, 2, 3]}`,
			expected: `{"items": [1, 2, 3]}`,
		},
		{
			name:     "object with trailing text",
			input:    `{"key": "value"} and some more text`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "string with braces inside",
			input:    `{"template": "Hello {name}!"}`,
			expected: `{"template": "Hello {name}!"}`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "not starting with brace",
			input:    "not json",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSONObject(tt.input)
			if result != tt.expected {
				t.Errorf("extractJSONObject() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple array",
			input:    `["a", "b", "c"]`,
			expected: `["a", "b", "c"]`,
		},
		{
			name:     "nested arrays",
			input:    `[[1, 2], [3, 4]]`,
			expected: `[[1, 2], [3, 4]]`,
		},
		{
			name:     "array of objects",
			input:    `[{"id": 1}, {"id": 2}]`,
			expected: `[{"id": 1}, {"id": 2}]`,
		},
		{
			name:     "array with trailing text",
			input:    `[1, 2, 3] extra stuff`,
			expected: `[1, 2, 3]`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "not starting with bracket",
			input:    "not array",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSONArray(tt.input)
			if result != tt.expected {
				t.Errorf("extractJSONArray() = %q, want %q", result, tt.expected)
			}
		})
	}
}

type summaryFixture struct {
	State   string   `json:"state"`
	Message string   `json:"message"`
	Skills  []string `json:"skills"`
}

func TestParseOrDefault(t *testing.T) {
	def := summaryFixture{State: "failed", Message: "default"}

	tests := []struct {
		name     string
		input    string
		expected summaryFixture
		ok       bool
	}{
		{
			name:     "plain object",
			input:    `{"state": "idle", "message": "none found"}`,
			expected: summaryFixture{State: "idle", Message: "none found"},
			ok:       true,
		},
		{
			name:     "fenced with preamble",
			input:    "Sure!\n```json\n{\"state\": \"drafted\", \"skills\": [\"go\"]}\n```",
			expected: summaryFixture{State: "drafted", Skills: []string{"go"}},
			ok:       true,
		},
		{name: "empty", input: "", expected: def},
		{name: "prose only", input: "I could not complete the request.", expected: def},
		{name: "truncated", input: `{"state": "idle", "message": "cut`, expected: def},
		{name: "wrong shape", input: `{"state": 42}`, expected: def},
		{name: "array instead of object", input: `["idle"]`, expected: def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseOrDefault(tt.input, def)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseOrDefault_Map(t *testing.T) {
	args, ok := ParseOrDefault(`{"skills": ["Go"], "limit": 3}`, map[string]any{})
	require.True(t, ok)
	assert.Equal(t, float64(3), args["limit"])

	args, ok = ParseOrDefault(`{"skills": [`, map[string]any{})
	assert.False(t, ok)
	assert.NotNil(t, args)
	assert.Empty(t, args)
}
