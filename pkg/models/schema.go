package models

import (
	"github.com/xeipuuv/gojsonschema"
)

// DefinitionSchema returns the JSON Schema for workflow definition documents
// as accepted by the import tooling. Semantic rules a schema cannot express
// (exactly one initial state, reference integrity) are enforced separately by
// ValidateStateMachine.
func DefinitionSchema() map[string]any {
	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []any{"name", "states"},
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
			"states": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"id", "name"},
					"properties": map[string]any{
						"id":        map[string]any{"type": "string", "minLength": 1},
						"name":      map[string]any{"type": "string", "minLength": 1},
						"isInitial": map[string]any{"type": "boolean"},
						"isFinal":   map[string]any{"type": "boolean"},
						"enabled":   map[string]any{"type": "boolean"},
					},
				},
			},
			"actions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"id", "name", "fromStates", "toState"},
					"properties": map[string]any{
						"id":      map[string]any{"type": "string", "minLength": 1},
						"name":    map[string]any{"type": "string", "minLength": 1},
						"enabled": map[string]any{"type": "boolean"},
						"fromStates": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items":    map[string]any{"type": "string"},
						},
						"toState": map[string]any{"type": "string", "minLength": 1},
					},
				},
			},
		},
	}
}

// ValidateDefinitionDocument checks a raw definition document against
// DefinitionSchema and returns one message per violation. A nil, empty
// result means the document is structurally valid.
func ValidateDefinitionDocument(document []byte) ([]string, error) {
	schemaLoader := gojsonschema.NewGoLoader(DefinitionSchema())
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, err
	}

	if result.Valid() {
		return nil, nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}

	return messages, nil
}
