// Package config loads the flat credential file handed to provider and
// model-adapter constructors. Credentials are read once at startup and are
// immutable for the process lifetime; a missing required key is a fatal
// configuration error surfaced before any dependent component initializes.
package config

import (
	"encoding/json"
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// Well-known credential keys.
const (
	KeyModelAuth   = "model_auth_key"
	KeyModelClient = "model_client_id"
	KeyCurrencyAPI = "currency_api_key"
	KeyWeatherAPI  = "weather_api_key"
)

// fileSchema constrains the credential file to a flat string-to-string map.
const fileSchema = `{
	"type": "object",
	"additionalProperties": {"type": "string"}
}`

// Credentials is an immutable key-to-secret mapping.
type Credentials struct {
	values map[string]string
}

// Load reads and validates the credential file at path.
func Load(path string) (*Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errmodel.Config("unreadable", "cannot read credential file", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errmodel.Config("malformed", "credential file is not valid JSON", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
	if err := validateShape(doc); err != nil {
		return nil, errmodel.Config("malformed", "credential file has unexpected shape", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
	values := map[string]string{}
	for k, v := range doc.(map[string]any) {
		values[k] = v.(string)
	}
	return &Credentials{values: values}, nil
}

// FromMap builds credentials from an in-memory map. Intended for tests.
func FromMap(values map[string]string) *Credentials {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Credentials{values: cp}
}

// Get returns the secret for key, if present.
func (c *Credentials) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Require returns the secret for key or a fatal config error. Dependent
// components call this at construction time, so an absent token fails
// before the component partially initializes.
func (c *Credentials) Require(key string) (string, error) {
	v, ok := c.values[key]
	if !ok || v == "" {
		return "", errmodel.Config("missing_key", "required credential key is absent", map[string]any{
			"key": key,
		})
	}
	return v, nil
}

func validateShape(doc any) error {
	c := jsonschema.NewCompiler()
	var schemaDoc any
	if err := json.Unmarshal([]byte(fileSchema), &schemaDoc); err != nil {
		return err
	}
	if err := c.AddResource("mem://credentials.json", schemaDoc); err != nil {
		return err
	}
	sch, err := c.Compile("mem://credentials.json")
	if err != nil {
		return err
	}
	return sch.Validate(doc)
}
