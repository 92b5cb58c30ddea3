package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// echoTool is a minimal tool used across the package tests.
type echoTool struct {
	BaseTool
	calls int
}

func newEchoTool(name string) *echoTool {
	return &echoTool{BaseTool: BaseTool{ToolName: name, ToolDescription: "echo " + name}}
}

func (t *echoTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	t.calls++
	return NewSuccessResult(t.Name() + ":" + StringArg(args, "text")), nil
}

func TestToolResult_String(t *testing.T) {
	assert.Equal(t, "ok", NewSuccessResult("ok").String())
	assert.Equal(t, "Error: bad", NewErrorResult("bad").String())

	r := NewResultWithMetadata("ok", map[string]any{"count": 1})
	assert.False(t, r.IsError)
	assert.Equal(t, 1, r.Metadata["count"])
}

func TestBaseTool_DefaultParameters(t *testing.T) {
	tool := newEchoTool("e")
	params := tool.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, "echo e", tool.Description())
}

func TestArgs(t *testing.T) {
	args := map[string]any{
		"text":     "  hi ",
		"priority": float64(2),
		"str":      "4",
		"frac":     1.5,
		"bad":      "x",
		"flag":     "true",
	}

	assert.Equal(t, "hi", StringArg(args, "text"))
	assert.Equal(t, "", StringArg(args, "missing"))

	n, ok, err := IntArg(args, "priority")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, _, err = IntArg(args, "str")
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	_, _, err = IntArg(args, "frac")
	assert.Error(t, err)
	_, _, err = IntArg(args, "bad")
	assert.Error(t, err)

	_, ok, err = IntArg(args, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	b, ok := BoolArg(args, "flag")
	assert.True(t, ok)
	assert.True(t, b)
}
