package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old, new State
		want     map[string]any
	}{
		{"first step", nil, State{"document": "text"}, map[string]any{"document": "text"}},
		{"unchanged", State{"a": 1}, State{"a": 1}, nil},
		{"added and modified", State{"a": 1, "b": "old"}, State{"a": 1, "b": "new", "c": true}, map[string]any{"b": "new", "c": true}},
		{"slice grew", State{"issues": []string{"x"}}, State{"issues": []string{"x", "y"}}, map[string]any{"issues": []string{"x", "y"}}},
		{"removed", State{"a": 1, "b": 2}, State{"a": 1}, map[string]any{"b": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.old, tt.new))
		})
	}
}

func TestDiff_RemovedFieldEncodesAsNull(t *testing.T) {
	data, err := json.Marshal(Diff(State{"a": 1, "b": 2}, State{"a": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":null}`, string(data))
}
