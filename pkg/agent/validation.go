package agent

import (
	"encoding/json"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateFunc checks instance data against a raw JSON Schema. A nil or
// empty schema accepts everything.
type ValidateFunc func(schema []byte, data any) error

// Tool schemas are static for the life of a toolset, so compiled schemas
// are cached keyed by their source bytes.
var schemaCache sync.Map // string -> *jsonschema.Schema

func compileSchema(schema []byte) (*jsonschema.Schema, error) {
	key := string(schema)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("mem://tool.json", doc); err != nil {
		return nil, err
	}
	sch, err := c.Compile("mem://tool.json")
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, sch)
	return sch, nil
}

// JSONSchemaValidator is the default ValidateFunc, backed by jsonschema/v6.
func JSONSchemaValidator(schema []byte, data any) error {
	if len(schema) == 0 {
		return nil
	}
	sch, err := compileSchema(schema)
	if err != nil {
		return err
	}
	// round-trip to the generic form the validator expects
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return sch.Validate(v)
}

// CompileJSONSchema reports whether the schema itself is well-formed. It
// validates no instance data.
func CompileJSONSchema(schema []byte) error {
	if len(schema) == 0 {
		return nil
	}
	_, err := compileSchema(schema)
	return err
}
