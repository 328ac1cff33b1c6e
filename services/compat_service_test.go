package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompatibility(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		wantScore int
		wantErr   bool
	}{
		{
			name:      "plain json",
			raw:       `{"score": 85, "reasons": ["shared interests"]}`,
			wantScore: 85,
		},
		{
			name: "fenced json",
			raw: "```json\n" +
				`{"score": 42, "reasons": ["ok"]}` +
				"\n```",
			wantScore: 42,
		},
		{
			name:      "score clamped high",
			raw:       `{"score": 250, "reasons": []}`,
			wantScore: 100,
		},
		{
			name:      "score clamped low",
			raw:       `{"score": -5, "reasons": []}`,
			wantScore: 0,
		},
		{
			name:    "prose instead of json",
			raw:     "They seem very compatible!",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseCompatibility(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantScore, result.Score)
		})
	}
}

func TestParseOpeners(t *testing.T) {
	openers, err := parseOpeners(`["What's your favorite trail?", "  ", "Coffee or tea?"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"What's your favorite trail?", "Coffee or tea?"}, openers)

	_, err = parseOpeners(`[]`)
	assert.Error(t, err)

	_, err = parseOpeners(`not json`)
	assert.Error(t, err)
}

func TestExtractJSONStripsFences(t *testing.T) {
	fenced := "```json\n{\"score\": 1}\n```"
	assert.Equal(t, `{"score": 1}`, extractJSON(fenced))

	bare := `{"score": 1}`
	assert.Equal(t, bare, extractJSON(bare))
}

func TestDefaultCompatibilityIsDeterministic(t *testing.T) {
	first := DefaultCompatibility()
	second := DefaultCompatibility()
	assert.Equal(t, first, second)
	assert.Equal(t, 70, first.Score)
	assert.NotEmpty(t, DefaultOpeners())
}
