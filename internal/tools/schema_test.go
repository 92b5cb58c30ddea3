package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSchema(t *testing.T) {
	type Args struct {
		Text     string   `json:"text" jsonschema:"description=Task text,required"`
		Priority int      `json:"priority" jsonschema:"minimum=1,maximum=5"`
		Status   string   `json:"status" jsonschema:"enum=open|done"`
		Tags     []string `json:"tags"`
		Done     *bool    `json:"done,omitempty"`
		Skip     string   `json:"-"`
		hidden   string
	}

	schema := BuildSchema(Args{})
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"text"}, schema["required"])

	props := schema["properties"].(map[string]any)
	require.Len(t, props, 5)

	text := props["text"].(map[string]any)
	assert.Equal(t, "string", text["type"])
	assert.Equal(t, "Task text", text["description"])

	priority := props["priority"].(map[string]any)
	assert.Equal(t, "integer", priority["type"])
	assert.Equal(t, 1.0, priority["minimum"])
	assert.Equal(t, 5.0, priority["maximum"])

	assert.Equal(t, []any{"open", "done"}, props["status"].(map[string]any)["enum"])
	assert.Equal(t, map[string]any{"type": "string"}, props["tags"].(map[string]any)["items"])
	assert.Equal(t, "boolean", props["done"].(map[string]any)["type"])
}

func TestBuildSchema_NonStruct(t *testing.T) {
	for _, v := range []any{nil, 42, "x"} {
		schema := BuildSchema(v)
		assert.Equal(t, "object", schema["type"])
		assert.Empty(t, schema["properties"])
	}
}
