package tools

import (
	"reflect"
	"strconv"
	"strings"
)

// BuildSchema generates a JSON Schema from a Go struct type using reflection.
// Supported jsonschema tag attributes: description=<text>, required,
// enum=<a|b|c>, minimum=<n>, maximum=<n>.
//
//	type Args struct {
//	    Text     string `json:"text" jsonschema:"description=Task text,required"`
//	    Priority int    `json:"priority" jsonschema:"minimum=1,maximum=5"`
//	}
func BuildSchema(v any) map[string]any {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}
	return objectSchema(t)
}

func objectSchema(t reflect.Type) map[string]any {
	properties := make(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		prop := typeSchema(field.Type)
		if tag := field.Tag.Get("jsonschema"); tag != "" {
			if applyTag(tag, prop) {
				required = append(required, name)
			}
		}
		properties[name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func typeSchema(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": typeSchema(t.Elem())}
	case reflect.Struct:
		return objectSchema(t)
	default:
		return map[string]any{"type": "object"}
	}
}

// applyTag updates schema from a jsonschema tag and reports whether the
// field is required. Descriptions may not contain commas.
func applyTag(tag string, schema map[string]any) (required bool) {
	for _, attr := range strings.Split(tag, ",") {
		attr = strings.TrimSpace(attr)
		key, value, _ := strings.Cut(attr, "=")
		switch key {
		case "required":
			required = true
		case "description":
			schema["description"] = value
		case "enum":
			vals := strings.Split(value, "|")
			enum := make([]any, len(vals))
			for i, v := range vals {
				enum[i] = v
			}
			schema["enum"] = enum
		case "minimum", "maximum":
			if n, err := strconv.ParseFloat(value, 64); err == nil {
				schema[key] = n
			}
		}
	}
	return required
}
