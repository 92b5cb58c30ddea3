package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StringArg returns a trimmed string argument, or "" when absent.
func StringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// IntArg returns an integer argument. Models sometimes send numbers as
// strings, so numeric strings are accepted. ok is false when key is absent.
func IntArg(args map[string]any, key string) (n int, ok bool, err error) {
	raw, present := args[key]
	if !present || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, true, fmt.Errorf("%s must be a whole number", key)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, true, fmt.Errorf("%s must be a number", key)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
}

// BoolArg returns a boolean argument, accepting "true"/"false" strings.
func BoolArg(args map[string]any, key string) (b bool, ok bool) {
	switch v := args[key].(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return false, false
	}
}
