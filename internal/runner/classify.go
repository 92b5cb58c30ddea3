package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the category of a failed backend call.
type ErrorKind int

const (
	KindUnclassified ErrorKind = iota
	KindTimeout
	KindToolExecutionCrash
	KindTransientBackendCrash
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindToolExecutionCrash:
		return "tool_execution_crash"
	case KindTransientBackendCrash:
		return "transient_backend_crash"
	default:
		return "unclassified"
	}
}

var toolCrashPhrases = []string{
	"session generation error",
	"error 2",
	"tool execution",
}

var transientPhrases = []string{
	"inference provider crashed",
	"ipc error",
	"underlying connection interrupted",
	"sensitive",
	"canceled session",
	"session generation error",
	"error 2",
	"tool execution",
	"session error",
	"content policy",
	"safety",
}

// ClassifiedError is a failed backend call with its category and raw text.
type ClassifiedError struct {
	Kind       ErrorKind
	Diagnostic string
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Diagnostic)
}

// Classify assigns err to a category by case-insensitive phrase matching on
// its text. A *TimeoutError from Race is always a timeout.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	diag := err.Error()
	var te *TimeoutError
	if errors.As(err, &te) {
		return &ClassifiedError{Kind: KindTimeout, Diagnostic: diag}
	}

	text := normalize(diag)
	switch {
	case containsAny(text, toolCrashPhrases):
		return &ClassifiedError{Kind: KindToolExecutionCrash, Diagnostic: diag}
	case containsAny(text, transientPhrases):
		return &ClassifiedError{Kind: KindTransientBackendCrash, Diagnostic: diag}
	case strings.Contains(text, "timeout"):
		return &ClassifiedError{Kind: KindTimeout, Diagnostic: diag}
	default:
		return &ClassifiedError{Kind: KindUnclassified, Diagnostic: diag}
	}
}
