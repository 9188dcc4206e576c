package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFields_SplitsNameAndExtra(t *testing.T) {
	td := FromFields("e1", map[string]any{"name": "Buy milk", "priority": float64(2), "id": "ignored"})
	assert.Equal(t, "e1", td.ID)
	assert.Equal(t, "Buy milk", td.Name)
	assert.Equal(t, map[string]any{"priority": float64(2)}, td.Extra)
}

func TestFromFields_NonStringNameStaysExtra(t *testing.T) {
	td := FromFields("e1", map[string]any{"name": float64(7)})
	assert.Equal(t, "", td.Name)
	assert.Equal(t, float64(7), td.Extra["name"])
}

func TestFields_ExcludesID(t *testing.T) {
	td := Todo{ID: "e1", Name: "x", Extra: map[string]any{"done": true}}
	f := td.Fields()
	_, hasID := f["id"]
	assert.False(t, hasID)
	assert.Equal(t, map[string]any{"name": "x", "done": true}, f)
}

func TestWithName_DoesNotShareExtra(t *testing.T) {
	orig := Todo{ID: "e1", Name: "old", Extra: map[string]any{"done": true}}
	renamed := orig.WithName("new")
	renamed.Extra["done"] = false

	assert.Equal(t, "new", renamed.Name)
	assert.Equal(t, "e1", renamed.ID)
	assert.Equal(t, true, orig.Extra["done"])
}

func TestJSON_IsFlat(t *testing.T) {
	td := Todo{ID: "e1", Name: "x", Extra: map[string]any{"tag": "home"}}
	b, err := json.Marshal(td)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"e1","name":"x","tag":"home"}`, string(b))

	var back Todo
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"name":"y","tag":"work"}`), &back))
	assert.Equal(t, "42", back.ID)
	assert.Equal(t, "y", back.Name)
	assert.Equal(t, "work", back.Extra["tag"])
}
