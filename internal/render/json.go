package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/claimview/internal/dashboard"
)

// viewJSON adds the fields View keeps out of its own encoding
type viewJSON struct {
	*dashboard.View
	ExpandedGroups []string          `json:"expanded_groups"`
	Overflow       string            `json:"overflow,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
}

func newViewJSON(v *dashboard.View) viewJSON {
	out := viewJSON{
		View:           v,
		ExpandedGroups: v.Expanded.Expanded(v.FactGroups),
		Overflow:       v.Attention.OverflowLabel(),
	}
	if len(v.Errors) > 0 {
		out.Errors = make(map[string]string, len(v.Errors))
		for s, err := range v.Errors {
			out.Errors[string(s)] = err.Error()
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
