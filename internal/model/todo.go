package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Todo is the domain model for a todo entry as the remote table stores it.
// ID is assigned by the store and never sent back as a field.
// Extra holds every field besides name so a full overwrite keeps them.
type Todo struct {
	ID    string
	Name  string
	Extra map[string]any
}

const (
	fieldID   = "id"
	fieldName = "name"
)

// FromFields builds a Todo from a flattened row.
func FromFields(id string, fields map[string]any) Todo {
	t := Todo{ID: id}
	for k, v := range fields {
		if k == fieldID {
			continue
		}
		if k == fieldName {
			if s, ok := v.(string); ok {
				t.Name = s
				continue
			}
		}
		if t.Extra == nil {
			t.Extra = map[string]any{}
		}
		t.Extra[k] = v
	}
	return t
}

// Fields returns all fields except id, ready to be sent as a row payload.
func (t Todo) Fields() map[string]any {
	out := make(map[string]any, len(t.Extra)+1)
	for k, v := range t.Extra {
		out[k] = v
	}
	out[fieldName] = t.Name
	return out
}

// WithName returns a copy with a new name; the copy does not share Extra.
func (t Todo) WithName(name string) Todo {
	c := Todo{ID: t.ID, Name: name}
	if t.Extra != nil {
		c.Extra = make(map[string]any, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func (t Todo) MarshalJSON() ([]byte, error) {
	flat := t.Fields()
	flat[fieldID] = t.ID
	return json.Marshal(flat)
}

func (t *Todo) UnmarshalJSON(b []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}
	var id string
	switch v := flat[fieldID].(type) {
	case nil:
	case string:
		id = v
	case float64:
		id = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Errorf("todo: id has unexpected type %T", v)
	}
	*t = FromFields(id, flat)
	return nil
}
