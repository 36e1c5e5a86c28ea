package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema constrains the model's response. It is passed to the provider
// as guidance and enforced locally before the response is trusted.
func resultSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "tags"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"correspondent": nullableString,
			"document_type": nullableString,
			"document_date": map[string]any{
				"type":    []string{"string", "null"},
				"pattern": `^\d{4}-\d{2}-\d{2}$`,
			},
			"language": nullableString,
		},
	}
}

// validateSchema validates data against schemaMap.
func validateSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
