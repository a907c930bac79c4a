package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	old := map[string]any{"quantity": int64(10), "item": "Rifle", "notes": "x"}
	next := map[string]any{"quantity": int64(6), "item": "Rifle", "baseId": int64(2)}

	got := Diff(old, next)

	assert.Equal(t, map[string]any{
		"quantity": map[string]any{"old": int64(10), "new": int64(6)},
		"baseId":   map[string]any{"old": nil, "new": int64(2)},
		"notes":    map[string]any{"old": "x", "new": nil},
	}, got)
}

func TestDiff_Unchanged(t *testing.T) {
	state := map[string]any{"item": "Helmet", "quantity": int64(3)}
	assert.Empty(t, Diff(state, state))
}
