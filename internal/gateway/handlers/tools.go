package handlers

import (
	"net/http"

	"brainbox/internal/tools"
)

// ToolInfo describes a registered capability.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolsHandler lists the registered capabilities.
func ToolsHandler(reg *tools.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := reg.List()
		infos := make([]ToolInfo, 0, len(list))
		for _, t := range list {
			infos = append(infos, ToolInfo{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			})
		}
		SendJSON(w, http.StatusOK, map[string]any{"tools": infos})
	}
}
