// Package schema declares the state fields a node needs before it can run.
//
// A Schema maps field names to types. The engine validates the run state
// against a node's schema right before dispatching it, so a node never sees
// a state missing the fields it reads.
//
//	requires := schema.Schema{
//	    "document":   schema.String(),
//	    "confidence": schema.Float(),
//	    "issues":     schema.Slice(schema.String()),
//	}
//
// Schemas can also be parsed from type names, as used by YAML definitions:
//
//	requires, err := schema.ParseTypeMap(map[string]string{"document": "string"})
package schema
