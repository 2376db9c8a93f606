package middleware

import (
	"context"
	"fmt"
	"reflect"
	"regexp"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/ports"
)

// Mask replaces the value of every masked field.
const Mask = "***"

type piiMiddleware struct {
	next     ports.CheckpointStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values whose keys match
// any of the patterns, at any depth of the state. Masking is one-way: the
// in-flight state keeps its values, the stored snapshot does not.
func NewPIIMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &piiMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, runID string, cp *domain.Checkpoint) error {
	// Clone so the engine's state is left untouched.
	masked := cp.Clone()
	maskMap(masked.State, m.patterns)
	return m.next.Save(ctx, runID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, runID string) (*domain.Checkpoint, error) {
	return m.next.Load(ctx, runID)
}

func (m *piiMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return list(ctx, m.next)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matches(k, patterns) {
			m[k] = Mask
			continue
		}
		maskValue(v, patterns)
	}
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch val := v.(type) {
	case domain.State:
		maskMap(val, patterns)
	case map[string]any:
		maskMap(val, patterns)
	case []any:
		for _, item := range val {
			maskValue(item, patterns)
		}
	case nil:
	default:
		maskReflect(reflect.ValueOf(v), patterns)
	}
}

// maskReflect walks typed containers such as []map[string]any or
// map[string]string. Save works on a deep clone, so nested maps are
// rewritten in place.
func maskReflect(rv reflect.Value, patterns []*regexp.Regexp) {
	switch rv.Kind() {
	case reflect.Interface:
		if !rv.IsNil() {
			maskValue(rv.Elem().Interface(), patterns)
		}
	case reflect.Map:
		stringKeys := rv.Type().Key().Kind() == reflect.String
		for _, k := range rv.MapKeys() {
			if stringKeys && matches(k.String(), patterns) {
				rv.SetMapIndex(k, maskFor(rv.Type().Elem()))
				continue
			}
			maskReflect(rv.MapIndex(k), patterns)
		}
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			maskReflect(rv.Index(i), patterns)
		}
	}
}

// maskFor returns Mask when the element type can hold it, the zero value otherwise.
func maskFor(t reflect.Type) reflect.Value {
	m := reflect.ValueOf(Mask)
	switch {
	case m.Type().AssignableTo(t):
		return m
	case t.Kind() == reflect.String:
		return m.Convert(t)
	}
	return reflect.Zero(t)
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
