package gateway

import (
	"bytes"
	"encoding/json"
)

// Collection decodes a list response that is either a bare JSON array or a
// pagination envelope of the form {"data": [...], ...}.
type Collection[T any] []T

func (c *Collection[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*c = items
		return nil
	}

	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	*c = envelope.Data
	return nil
}
