// internal/nlp/extract_test.go
package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONCandidate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "json fence stripped",
			raw:      "```json\n{\"confidence\": 0.9}\n```",
			expected: `{"confidence": 0.9}`,
		},
		{
			name:     "bare fence stripped",
			raw:      "```\n{\"confidence\": 0.9}\n```",
			expected: `{"confidence": 0.9}`,
		},
		{
			name:     "no fences untouched",
			raw:      `{"confidence": 0.9}`,
			expected: `{"confidence": 0.9}`,
		},
		{
			name:     "surrounding whitespace trimmed",
			raw:      "  \n```json\n{\"a\": 1}\n```  \n",
			expected: `{"a": 1}`,
		},
		{
			name:     "opening fence without closing fence",
			raw:      "```json\n{\"a\": 1}",
			expected: `{"a": 1}`,
		},
		{
			name:     "plain prose untouched",
			raw:      "Revenue is trending up",
			expected: "Revenue is trending up",
		},
		{
			name:     "fence marker mid-text not stripped",
			raw:      "see ```json below",
			expected: "see ```json below",
		},
		{
			name:     "empty input",
			raw:      "",
			expected: "",
		},
		{
			name:     "fences only",
			raw:      "```json\n```",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONCandidate(tt.raw))
		})
	}
}

func TestExtractJSONCandidate_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\": 1}\n```",
		"{\"a\": 1}",
		"plain text reply",
	}

	for _, raw := range inputs {
		once := ExtractJSONCandidate(raw)
		twice := ExtractJSONCandidate(once)
		assert.Equal(t, once, twice, "second pass must be a no-op for %q", raw)
	}
}
