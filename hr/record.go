package hr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is a loosely typed collection item, used where a screen renders any
// endpoint through the same template.
type Record map[string]any

// ID returns the record's identifier as a string
func (r Record) ID() string {
	return r.String("id")
}

// String formats a field for display. Numbers decoded from JSON lose their
// trailing ".0".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// RecordFromForm builds a payload from submitted form values. Number fields
// are sent as numbers, empty optional fields are omitted.
func (s Screen) RecordFromForm(get func(string) string) Record {
	out := Record{}
	for _, f := range s.Fields {
		v := strings.TrimSpace(get(f.Name))
		if v == "" {
			continue
		}
		if f.Type == FieldNumber {
			if n, err := strconv.Atoi(v); err == nil {
				out[f.Name] = n
				continue
			}
		}
		out[f.Name] = v
	}
	return out
}
