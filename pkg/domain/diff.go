package domain

import (
	"reflect"
)

// Diff calculates the fields that changed between oldState and newState.
// Added and modified fields carry their new value; deleted fields are present with a nil value.
// If oldState is nil, every field of newState is part of the diff (initial load).
// Returns nil when nothing changed so callers can omit it from JSON output.
func Diff(oldState, newState State) map[string]any {
	delta := make(map[string]any)

	if oldState == nil {
		for k, v := range newState {
			delta[k] = v
		}
		return nilIfEmpty(delta)
	}

	// Added or modified
	for k, newVal := range newState {
		oldVal, exists := oldState[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Deleted
	for k := range oldState {
		if _, exists := newState[k]; !exists {
			delta[k] = nil
		}
	}

	return nilIfEmpty(delta)
}

func nilIfEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
