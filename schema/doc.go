// Package schema generates JSON Schema documents from Go types.
//
// Tool descriptors advertise their input shape with a schema generated once,
// at registration time, from the tool's parameter struct:
//
//	type SearchParams struct {
//	    Query   string `json:"query" jsonschema:"required,description=Search query"`
//	    PerPage *int   `json:"per_page,omitempty" jsonschema:"minimum=1,maximum=100"`
//	}
//
//	s, err := schema.For[SearchParams]()
//
// # Struct Tags
//
//   - json: field name; "-" excludes the field
//   - jsonschema:"required": adds the field to the parent's required list
//   - jsonschema:"description=...": free text, must be the last item
//   - jsonschema:"minimum=N" and "maximum=N": numeric bounds
//
// Schemas are descriptive only. Inputs are checked by decoding them into the
// parameter type, not by evaluating the schema.
package schema
