package sequence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const configSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"orderField": {"type": "string", "minLength": 1},
		"groupFields": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"uniqueItems": true
		},
		"startAt": {"type": "integer"}
	},
	"additionalProperties": false
}`

var (
	configSchemaOnce sync.Once
	configSchema     *jsonschema.Schema
	configSchemaErr  error
)

func compiledConfigSchema() (*jsonschema.Schema, error) {
	configSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchemaJSON))
		if err != nil {
			configSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("sequence-config.schema.json", doc); err != nil {
			configSchemaErr = err
			return
		}
		configSchema, configSchemaErr = compiler.Compile("sequence-config.schema.json")
	})
	return configSchema, configSchemaErr
}

// LoadConfigFile reads one collection's config document, validates it
// against the embedded schema, and returns the Config with defaults applied.
// The extension selects the format: .yaml/.yml is YAML, everything else is
// JSON.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ParseConfig(raw, ext == ".yaml" || ext == ".yml")
}

// ParseConfig validates and decodes one config document. Schema violations,
// unknown keys included, are setup-time errors wrapping ErrInvalidConfig.
func ParseConfig(raw []byte, asYAML bool) (Config, error) {
	jsonRaw := raw
	if asYAML {
		var node any
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		converted, err := json.Marshal(node)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		jsonRaw = converted
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonRaw))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	schema, err := compiledConfigSchema()
	if err != nil {
		return Config{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonRaw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
