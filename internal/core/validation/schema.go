package validation

// ResponseJSONSchema describes the TransformResponse shape (draft 2020-12).
// Unknown keys are tolerated and dropped on decode; every listed key is required.
func ResponseJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}

	section := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"heading": str,
			"bullets": map[string]any{"type": "array", "items": str},
		},
		"required": []string{"heading", "bullets"},
	}
	nextAction := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":     str,
			"first_step": str,
		},
		"required": []string{"action", "first_step"},
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"title":        str,
			"summary":      str,
			"sections":     map[string]any{"type": "array", "items": section},
			"next_actions": map[string]any{"type": "array", "items": nextAction},
		},
		"required": []string{"title", "summary", "sections", "next_actions"},
	}
}
