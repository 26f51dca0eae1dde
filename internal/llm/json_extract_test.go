package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "json code block",
			response: "Here is the answer:\n```json\n{\"confidence\": 0.9}\n```\nDone.",
			want:     `{"confidence": 0.9}`,
		},
		{
			name:     "untagged code block",
			response: "```\n{\"type\": \"simple_coverage\"}\n```",
			want:     `{"type": "simple_coverage"}`,
		},
		{
			name:     "raw json object",
			response: `The result is {"summary": "covered", "confidence": 0.8} as requested.`,
			want:     `{"summary": "covered", "confidence": 0.8}`,
		},
		{
			name:     "raw json array",
			response: `[{"id": 1}, {"id": 2}]`,
			want:     `[{"id": 1}, {"id": 2}]`,
		},
		{
			name:     "nested braces in strings",
			response: `{"text": "braces } inside \" strings", "ok": true}`,
			want:     `{"text": "braces } inside \" strings", "ok": true}`,
		},
		{
			name:     "skips non-json code block",
			response: "```python\nprint('hi')\n```\n{\"fallback\": true}",
			want:     `{"fallback": true}`,
		},
		{
			name:     "no json",
			response: "I cannot answer that question.",
			wantErr:  true,
		},
		{
			name:     "unbalanced braces",
			response: `{"broken": `,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONAs(t *testing.T) {
	type classification struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}

	got, err := ExtractJSONAs[classification]("```json\n{\"type\": \"comparison\", \"confidence\": 0.75}\n```")
	require.NoError(t, err)
	assert.Equal(t, "comparison", got.Type)
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)

	_, err = ExtractJSONAs[classification]("no json here")
	assert.Error(t, err)
}
