package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Load reads, decodes, and validates a trace script. The format is chosen
// by file extension: .json documents are checked against the trace script
// JSON Schema before decoding; everything else is parsed as YAML.
// Defaults are applied before validation.
func Load(path string) (*TraceScript, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("trace script not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading trace script: %w", err)
	}

	var script TraceScript
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := validateJSON(data); err != nil {
			return nil, fmt.Errorf("trace script %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &script); err != nil {
			return nil, fmt.Errorf("error parsing trace script: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &script); err != nil {
			return nil, fmt.Errorf("error parsing trace script: %w", err)
		}
	}

	ApplyDefaults(&script)

	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trace script %s: %w", path, err)
	}

	return &script, nil
}

// compiledSchema is built once; the schema source is a package constant,
// so compilation cannot fail at runtime.
var compiledSchema = jsonschema.MustCompileString("tracescript.json", traceScriptSchema)

// validateJSON checks a raw JSON document against the trace script schema.
func validateJSON(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
