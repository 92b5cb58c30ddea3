package runner

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Deadline reasons.
const (
	ReasonComplex = "complex"
	ReasonSimple  = "simple"
)

// DefaultComplexKeywords mark requests that tend to need open-ended reasoning.
var DefaultComplexKeywords = []string{"tools", "build", "ideas", "how", "create", "develop"}

// Deadline is the time budget of one backend call.
type Deadline struct {
	Seconds float64 `json:"seconds"`
	Reason  string  `json:"reason"`
}

// Duration returns the deadline as a time.Duration.
func (d Deadline) Duration() time.Duration {
	return time.Duration(d.Seconds * float64(time.Second))
}

// TimeoutPolicy picks a deadline from the latest user text. It is a coarse
// keyword and length heuristic.
type TimeoutPolicy struct {
	Complex  time.Duration
	Simple   time.Duration
	Keywords []string
	// Length is the rune count above which a request is complex.
	Length int
}

// DefaultTimeoutPolicy returns the 300s / 120s policy.
func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Complex:  300 * time.Second,
		Simple:   120 * time.Second,
		Keywords: DefaultComplexKeywords,
		Length:   100,
	}
}

// Deadline returns the deadline for userText.
func (p TimeoutPolicy) Deadline(userText string) Deadline {
	if p.isComplex(userText) {
		return Deadline{Seconds: p.Complex.Seconds(), Reason: ReasonComplex}
	}
	return Deadline{Seconds: p.Simple.Seconds(), Reason: ReasonSimple}
}

func (p TimeoutPolicy) isComplex(text string) bool {
	if utf8.RuneCountInString(text) > p.Length {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range p.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
