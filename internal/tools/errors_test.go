package tools

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Matching(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := fmt.Errorf("invoke: %w", NewInvalidArgsError("create_task", "arguments must be a JSON object", cause))

	assert.ErrorIs(t, err, ErrInvalidArgs)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrToolNotFound)
	assert.Equal(t, "invoke: invalid tool arguments: create_task: arguments must be a JSON object: unexpected end of JSON input", err.Error())

	var te *Error
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, "create_task", te.Tool)
}

func TestError_Messages(t *testing.T) {
	assert.Equal(t, "tool not found: verify_task", NewToolNotFoundError("verify_task").Error())
	assert.Equal(t, "tool already exists: list_tasks", NewToolAlreadyExistsError("list_tasks").Error())
	assert.Equal(t, "tool invoker closed: create_task: attempt already ended", NewRefusedCallError("create_task").Error())
	assert.ErrorIs(t, NewRefusedCallError("create_task"), ErrInvokerClosed)
}
