package tools

import (
	"errors"
	"strings"
)

var (
	ErrToolNotFound      = errors.New("tool not found")
	ErrToolAlreadyExists = errors.New("tool already exists")
	ErrInvalidArgs       = errors.New("invalid tool arguments")

	// ErrInvokerClosed marks a call that reached an invoker after its attempt
	// ended. Nothing was executed.
	ErrInvokerClosed = errors.New("tool invoker closed")
)

// Error ties one of the sentinels above to a tool name. errors.Is matches
// the sentinel; errors.Unwrap returns the cause, if any.
type Error struct {
	Tool   string
	Kind   error
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Tool != "" {
		b.WriteString(": ")
		b.WriteString(e.Tool)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Cause }

func NewToolNotFoundError(name string) error {
	return &Error{Tool: name, Kind: ErrToolNotFound}
}

func NewToolAlreadyExistsError(name string) error {
	return &Error{Tool: name, Kind: ErrToolAlreadyExists}
}

// NewInvalidArgsError reports arguments the tool could not accept. The text
// is returned to the model, so detail should say what to send instead.
func NewInvalidArgsError(tool, detail string, cause error) error {
	return &Error{Tool: tool, Kind: ErrInvalidArgs, Detail: detail, Cause: cause}
}

// NewRefusedCallError reports a late call to a fenced invoker.
func NewRefusedCallError(tool string) error {
	return &Error{Tool: tool, Kind: ErrInvokerClosed, Detail: "attempt already ended"}
}
