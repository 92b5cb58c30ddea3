package runner

import "strings"

var contentFilterPhrases = []string{
	"i'm sorry i cannot fulfill",
	"i can't help with that",
	"i cannot assist",
}

var refusalPhrases = []string{
	"can't see",
	"unable to access",
	"don't have access",
	"not capable",
	"cannot directly",
	"i don't have the ability",
	"i'm not able",
}

// Verdict is the validator's decision for a successful response.
type Verdict int

const (
	// VerdictPass returns the response unchanged.
	VerdictPass Verdict = iota
	// VerdictCountOnly replaces a content-filter rejection with the task count.
	VerdictCountOnly
	// VerdictFullList replaces a tool refusal with the task list.
	VerdictFullList
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictCountOnly:
		return "content_filter"
	case VerdictFullList:
		return "tool_refusal"
	default:
		return "unknown"
	}
}

// Validate inspects a successful response. A content-filter rejection is only
// replaced for task questions; other rejections pass through unchanged.
func Validate(response, userText string) Verdict {
	resp := normalize(response)
	if containsAny(resp, contentFilterPhrases) {
		if hasTaskIntent(userText) {
			return VerdictCountOnly
		}
		return VerdictPass
	}
	if containsAny(resp, refusalPhrases) && hasListIntent(userText) {
		return VerdictFullList
	}
	return VerdictPass
}

func hasTaskIntent(text string) bool {
	return containsAny(normalize(text), []string{"task", "count", "test"})
}

func hasListIntent(text string) bool {
	return containsAny(normalize(text), []string{"task", "todo", "list"})
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

func normalize(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
