package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStringArray(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    []string
		wantErr bool
	}{
		{
			name:    "clean array",
			content: `["20% off produce", "BOGO cereal"]`,
			max:     5,
			want:    []string{"20% off produce", "BOGO cereal"},
		},
		{
			name:    "array with surrounding whitespace",
			content: "\n  [\"Deal 1\", \"Deal 2\"]  \n",
			max:     5,
			want:    []string{"Deal 1", "Deal 2"},
		},
		{
			name:    "array embedded in prose",
			content: `Here are the deals you asked for: ["Deal 1", "Deal 2", "Deal 3"] Hope that helps!`,
			max:     5,
			want:    []string{"Deal 1", "Deal 2", "Deal 3"},
		},
		{
			name:    "markdown fenced array",
			content: "```json\n[\"Deal 1\", \"Deal 2\"]\n```",
			max:     5,
			want:    []string{"Deal 1", "Deal 2"},
		},
		{
			name:    "truncates past max",
			content: `["1", "2", "3", "4", "5", "6", "7"]`,
			max:     5,
			want:    []string{"1", "2", "3", "4", "5"},
		},
		{
			name:    "multiline array",
			content: "[\n  \"Deal 1\",\n  \"Deal 2\"\n]",
			max:     5,
			want:    []string{"Deal 1", "Deal 2"},
		},
		{
			name:    "plain prose with no brackets",
			content: "Sorry, I could not find any current deals for that store.",
			max:     5,
			wantErr: true,
		},
		{
			name:    "brackets but not an array of strings",
			content: `[{"deal": "20% off"}]`,
			max:     5,
			wantErr: true,
		},
		{
			name:    "empty array",
			content: `[]`,
			max:     5,
			wantErr: true,
		},
		{
			name:    "empty response",
			content: "",
			max:     5,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractStringArray(tt.content, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
