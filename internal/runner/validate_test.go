package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		response string
		user     string
		want     Verdict
	}{
		{"plain answer", "You have a busy day!", "what are my tasks", VerdictPass},
		{"content filter with task intent", "I'm sorry I cannot fulfill that.", "count my tasks", VerdictCountOnly},
		{"content filter curly apostrophe", "I’m sorry I cannot fulfill that.", "run a test", VerdictCountOnly},
		{"content filter other phrase", "I can't help with that.", "how many tasks", VerdictCountOnly},
		{"content filter without intent", "I cannot assist with that.", "write a poem", VerdictPass},
		{"refusal with list intent", "Sorry, I can't see your data.", "show my todo", VerdictFullList},
		{"refusal mixed case", "I'M NOT ABLE to do that", "what's on my LIST", VerdictFullList},
		{"refusal without intent", "I don't have the ability to browse.", "search the web", VerdictPass},
		{"content filter wins over refusal", "I cannot assist, I don't have access", "my tasks", VerdictCountOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.response, tt.user))
		})
	}
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "pass", VerdictPass.String())
	assert.Equal(t, "content_filter", VerdictCountOnly.String())
	assert.Equal(t, "tool_refusal", VerdictFullList.String())
	assert.Equal(t, "unknown", Verdict(9).String())
}
