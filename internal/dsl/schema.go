package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

func GetJSONSchema() string {
	return `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["steps"],
		"properties": {
			"name": {
				"type": "string"
			},
			"url": {
				"type": "string"
			},
			"steps": {
				"type": "array",
				"items": {
					"$ref": "#/definitions/step"
				},
				"minItems": 1
			}
		},
		"definitions": {
			"scalar": {
				"type": ["string", "number"]
			},
			"step": {
				"type": "object",
				"required": ["action"],
				"properties": {
					"action": {
						"type": "string",
						"minLength": 1
					},
					"description": {
						"type": "string"
					},
					"name": {
						"type": "string"
					},
					"selector": {
						"type": "string",
						"minLength": 1
					},
					"value": {
						"$ref": "#/definitions/scalar"
					},
					"url": {
						"type": "string"
					},
					"duration": {
						"$ref": "#/definitions/scalar"
					},
					"format": {
						"type": "string",
						"enum": ["iso_date"]
					},
					"clear": {
						"type": "boolean"
					},
					"data": {
						"type": "string"
					},
					"rows_path": {
						"type": "string"
					},
					"submit_trigger": {
						"type": "string"
					},
					"status_actions": {
						"type": "object",
						"additionalProperties": {
							"$ref": "#/definitions/step"
						}
					},
					"steps": {
						"type": "array",
						"items": {
							"$ref": "#/definitions/step"
						}
					}
				},
				"allOf": [
					{
						"if": {
							"properties": {
								"action": {
									"enum": ["type", "click"]
								}
							}
						},
						"then": {
							"required": ["selector"]
						}
					},
					{
						"if": {
							"properties": {
								"action": {
									"enum": ["navigate"]
								}
							}
						},
						"then": {
							"required": ["url"]
						}
					},
					{
						"if": {
							"properties": {
								"action": {
									"enum": ["log"]
								}
							}
						},
						"then": {
							"required": ["value"]
						}
					},
					{
						"if": {
							"properties": {
								"action": {
									"enum": ["loop_article"]
								}
							}
						},
						"then": {
							"required": ["data", "steps"],
							"properties": {
								"steps": {
									"minItems": 1
								}
							}
						}
					}
				]
			}
		}
	}`
}

// ValidateWithSchema validates a workflow document tree against the JSON schema.
func ValidateWithSchema(doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(GetJSONSchema())
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		var errMsg string
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("- %s\n", desc)
		}
		return fmt.Errorf("schema validation failed:\n%s", errMsg)
	}

	return nil
}

// Actions lists every action name used in a workflow, nested steps and status actions included.
func Actions(wf Workflow) []string {
	seen := make(map[string]bool)
	var names []string
	var walk func([]Step)
	walk = func(steps []Step) {
		for _, step := range steps {
			if !seen[step.Action] {
				seen[step.Action] = true
				names = append(names, step.Action)
			}
			walk(step.Steps)
			for _, action := range step.StatusActions {
				walk([]Step{action})
			}
		}
	}
	walk(wf.Steps)
	return names
}
