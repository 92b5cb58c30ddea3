package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbox/internal/provider"
)

func TestBuildContext_OrdersBySequence(t *testing.T) {
	tc, err := BuildContext([]ChatMessage{
		{Role: RoleUser, Text: "second question", Sequence: 3},
		{Role: RoleUser, Text: "first", Sequence: 1},
		{Role: RoleAssistant, Text: "answer", Sequence: 2},
		{Role: RoleSystem, Text: "You are helpful.", Sequence: 0},
	}, 10)
	require.NoError(t, err)

	assert.Equal(t, "You are helpful.", tc.SystemText)
	assert.Equal(t, "second question", tc.UserText)
	assert.Equal(t, []provider.Message{
		{Role: provider.RoleUser, Content: "first"},
		{Role: provider.RoleAssistant, Content: "answer"},
	}, tc.History)
}

func TestBuildContext_Window(t *testing.T) {
	var history []ChatMessage
	for i := 0; i < 30; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, ChatMessage{Role: role, Text: "m", Sequence: int64(i)})
	}
	history = append(history, ChatMessage{Role: RoleUser, Text: "latest", Sequence: 30})

	tc, err := BuildContext(history, 10)
	require.NoError(t, err)
	assert.Equal(t, "latest", tc.UserText)
	assert.Len(t, tc.History, 9)
}

func TestBuildContext_SystemOutsideWindowKept(t *testing.T) {
	history := []ChatMessage{{Role: RoleSystem, Text: "rules", Sequence: 0}}
	for i := 1; i <= 20; i++ {
		history = append(history, ChatMessage{Role: RoleUser, Text: "u", Sequence: int64(i)})
	}
	tc, err := BuildContext(history, 5)
	require.NoError(t, err)
	assert.Equal(t, "rules", tc.SystemText)
	assert.Len(t, tc.History, 4)
}

func TestBuildContext_LatestUserBeforeTrailingAssistant(t *testing.T) {
	tc, err := BuildContext([]ChatMessage{
		{Role: RoleUser, Text: "q", Sequence: 1},
		{Role: RoleAssistant, Text: "partial", Sequence: 2},
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, "q", tc.UserText)
	assert.Empty(t, tc.History)
}

func TestBuildContext_SkipsToolMessages(t *testing.T) {
	tc, err := BuildContext([]ChatMessage{
		{Role: RoleUser, Text: "list", Sequence: 1},
		{Role: RoleTool, Text: "[]", Sequence: 2},
		{Role: RoleAssistant, Text: "empty", Sequence: 3},
		{Role: RoleUser, Text: "thanks", Sequence: 4},
	}, 10)
	require.NoError(t, err)
	assert.Len(t, tc.History, 2)
}

func TestBuildContext_NoUserMessage(t *testing.T) {
	_, err := BuildContext(nil, 10)
	assert.ErrorIs(t, err, ErrNoUserMessage)

	var history []ChatMessage
	history = append(history, ChatMessage{Role: RoleUser, Text: "old", Sequence: 0})
	for i := 1; i <= 10; i++ {
		history = append(history, ChatMessage{Role: RoleAssistant, Text: "a", Sequence: int64(i)})
	}
	_, err = BuildContext(history, 10)
	assert.ErrorIs(t, err, ErrNoUserMessage)
}

func TestBuildContext_DefaultWindow(t *testing.T) {
	var history []ChatMessage
	for i := 0; i < 15; i++ {
		history = append(history, ChatMessage{Role: RoleUser, Text: "u", Sequence: int64(i)})
	}
	tc, err := BuildContext(history, 0)
	require.NoError(t, err)
	assert.Len(t, tc.History, DefaultHistoryWindow-1)
}
