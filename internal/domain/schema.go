package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ProductListField is the task field holding nested product lines
const ProductListField = "productList"

// ValidationMode selects how strictly a payload is compared to a schema
type ValidationMode int

const (
	// ModeCreate requires the exact field set
	ModeCreate ValidationMode = iota
	// ModeUpdate accepts any non-empty subset
	ModeUpdate
)

// Schema is the set of fields a message type may carry
type Schema struct {
	Name     string
	Required []string
	Optional []string
}

// TaskSchema describes a task payload
var TaskSchema = Schema{
	Name:     "task",
	Required: []string{"codOperator", "date", "type", "status", ProductListField},
}

// ProductLineSchema describes one element of productList
var ProductLineSchema = Schema{
	Name:     "productLine",
	Required: []string{"codProduct", "quantity"},
	Optional: []string{"from", "to"},
}

var errNotAnObject = errors.New("payload is not a JSON object")

// Payload is a decoded JSON object with its values left raw
type Payload map[string]json.RawMessage

// DecodePayload parses a JSON object. Anything else is an error.
func DecodePayload(body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errNotAnObject
	}
	return p, nil
}

// ValidatePayload checks the structure of a task payload against entity and
// the structure of each productList element against line. It never fails
// loudly: false means reject.
func ValidatePayload(payload Payload, mode ValidationMode, entity, line Schema) bool {
	if len(payload) == 0 {
		return false
	}

	schema, err := compiledSchema(mode, entity, line)
	if err != nil {
		return false
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return false
	}
	return schema.Validate(instance) == nil
}

var schemaCache = struct {
	sync.Mutex
	compiled map[string]*jsonschema.Schema
}{compiled: make(map[string]*jsonschema.Schema)}

// compiledSchema returns the JSON Schema for entity in the given mode,
// compiling it on first use.
func compiledSchema(mode ValidationMode, entity, line Schema) (*jsonschema.Schema, error) {
	url := fmt.Sprintf("mem://task-control/%s-%s-%d.json", entity.Name, line.Name, mode)

	schemaCache.Lock()
	defer schemaCache.Unlock()

	if schema, ok := schemaCache.compiled[url]; ok {
		return schema, nil
	}

	doc, err := schemaDocument(mode, entity, line)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("failed to add %s schema: %w", entity.Name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s schema: %w", entity.Name, err)
	}

	schemaCache.compiled[url] = schema
	return schema, nil
}

// schemaDocument renders the schema document. Create requires every field of
// entity, update any non-empty subset. Unknown fields are never allowed.
func schemaDocument(mode ValidationMode, entity, line Schema) (any, error) {
	lineDoc := objectDocument(line, nil)
	if len(line.Required) > 0 {
		lineDoc["required"] = line.Required
	}

	doc := objectDocument(entity, map[string]any{
		ProductListField: map[string]any{
			"type":  "array",
			"items": lineDoc,
		},
	})
	doc["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	doc["minProperties"] = 1

	switch mode {
	case ModeCreate:
		if len(entity.Required) > 0 {
			doc["required"] = entity.Required
		}
	case ModeUpdate:
	default:
		return nil, fmt.Errorf("unknown validation mode %d", mode)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

func objectDocument(s Schema, overrides map[string]any) map[string]any {
	properties := make(map[string]any, len(s.Required)+len(s.Optional))
	for _, f := range append(append([]string{}, s.Required...), s.Optional...) {
		if override, ok := overrides[f]; ok {
			properties[f] = override
			continue
		}
		properties[f] = map[string]any{}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}
