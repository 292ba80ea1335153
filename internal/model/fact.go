package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Fact is a normalized value extracted from a claim document
type Fact struct {
	Name            string          `json:"name"`
	Value           FactValue       `json:"value"`
	StructuredValue json.RawMessage `json:"structured_value,omitempty"` // Opaque, passed through
	SelectedFrom    *SourceRef      `json:"selected_from,omitempty"`    // nil for synthesized facts
}

// SourceRef ties a fact to the document location it was extracted from
type SourceRef struct {
	DocID     string `json:"doc_id"`
	DocType   string `json:"doc_type"`
	Page      *int   `json:"page,omitempty"`
	CharStart *int   `json:"char_start,omitempty"`
	CharEnd   *int   `json:"char_end,omitempty"`
}

// ClaimFacts is the fact set of one claim
type ClaimFacts struct {
	Facts       []Fact    `json:"facts"`
	GeneratedAt time.Time `json:"generated_at"`
	Sources     []string  `json:"sources,omitempty"`
}

// ValueKind discriminates FactValue
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueText
	ValueList
)

// FactValue holds a fact value: a string, a list of strings, or null
type FactValue struct {
	Kind  ValueKind
	Text  string
	Items []string
}

// TextValue returns a string fact value
func TextValue(s string) FactValue {
	return FactValue{Kind: ValueText, Text: s}
}

// ListValue returns a list fact value
func ListValue(items ...string) FactValue {
	return FactValue{Kind: ValueList, Items: items}
}

// IsNull reports whether the value is missing
func (v FactValue) IsNull() bool {
	return v.Kind == ValueNull
}

// MarshalJSON encodes the value as a JSON string, array or null
func (v FactValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueText:
		return json.Marshal(v.Text)
	case ValueList:
		if v.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Items)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts strings, arrays, null, and scalar numbers/booleans
// (kept as their literal text)
func (v *FactValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = FactValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode fact value: %w", err)
		}
		*v = TextValue(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode fact value list: %w", err)
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				s = string(bytes.TrimSpace(r))
			}
			items = append(items, s)
		}
		*v = ListValue(items...)
	case '{':
		return fmt.Errorf("decode fact value: objects belong in structured_value")
	default:
		*v = TextValue(string(data))
	}
	return nil
}
