package runner

import (
	"errors"
	"sort"
	"strings"

	"brainbox/internal/provider"
)

// DefaultHistoryWindow is the number of recent non-system messages kept.
const DefaultHistoryWindow = 10

// ErrNoUserMessage is returned when the recent window holds no user message.
var ErrNoUserMessage = errors.New("no user message found in the recent conversation")

// TurnContext is the bounded view of a conversation used for one turn.
type TurnContext struct {
	// SystemText is the caller's system text, used as the base of the preamble.
	SystemText string
	// History is the transcript preceding the latest user message.
	History []provider.Message
	// UserText is the latest user message in the window.
	UserText string
}

// BuildContext reduces history to the last window non-system messages.
// System messages are never part of the transcript; their text is joined into
// SystemText. Tool messages count towards the window but are not replayed.
func BuildContext(history []ChatMessage, window int) (TurnContext, error) {
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	ordered := make([]ChatMessage, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	var system []string
	var recent []ChatMessage
	for _, m := range ordered {
		if m.Role == RoleSystem {
			if text := strings.TrimSpace(m.Text); text != "" {
				system = append(system, text)
			}
			continue
		}
		recent = append(recent, m)
	}
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	last := -1
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role == RoleUser {
			last = i
			break
		}
	}
	if last < 0 {
		return TurnContext{}, ErrNoUserMessage
	}

	tc := TurnContext{
		SystemText: strings.Join(system, "\n\n"),
		UserText:   recent[last].Text,
	}
	for _, m := range recent[:last] {
		if m.Role == RoleTool {
			continue
		}
		tc.History = append(tc.History, provider.Message{Role: toProviderRole(m.Role), Content: m.Text})
	}
	return tc, nil
}
