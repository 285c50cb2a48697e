package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

const schemaURL = "transform_response.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func responseSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(ResponseJSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// Parse turns raw model text into a validated TransformResponse.
// Non-JSON text fails with ErrMalformedOutput; JSON that does not match the
// response schema fails with ErrUnexpectedSchema.
func Parse(raw string) (domain.TransformResponse, error) {
	content := stripCodeFence(raw)

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return domain.TransformResponse{}, domain.WrapError(domain.ErrMalformedOutput, "parse model output", err)
	}

	schema, err := responseSchema()
	if err != nil {
		return domain.TransformResponse{}, fmt.Errorf("compile response schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return domain.TransformResponse{}, domain.WrapError(domain.ErrUnexpectedSchema, "validate model output", err)
	}

	var out domain.TransformResponse
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return domain.TransformResponse{}, domain.WrapError(domain.ErrUnexpectedSchema, "decode model output", err)
	}
	return normalize(out), nil
}

// stripCodeFence removes a surrounding markdown fence some providers add even
// in JSON mode.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```JSON")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func normalize(resp domain.TransformResponse) domain.TransformResponse {
	if resp.Sections == nil {
		resp.Sections = []domain.Section{}
	}
	for i := range resp.Sections {
		if resp.Sections[i].Bullets == nil {
			resp.Sections[i].Bullets = []string{}
		}
	}
	if resp.NextActions == nil {
		resp.NextActions = []domain.NextAction{}
	}
	return resp
}
