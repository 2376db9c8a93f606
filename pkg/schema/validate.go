package schema

import "sort"

// Schema maps state field names to their expected types.
// Example: {"document": String(), "issues": Slice(String())}
type Schema map[string]Type

// Fields returns the field names in sorted order.
func (s Schema) Fields() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that every field of the schema is present in data with the expected type.
// All failures are reported together, in field name order.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for _, field := range schema.Fields() {
		value, exists := data[field]
		if !exists {
			errs = append(errs, &ValidationError{Key: field, Reason: "required"})
			continue
		}
		if err := schema[field].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: field, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
