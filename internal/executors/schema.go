package executors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func compileSchema(taskType, schemaJSON string) (*jsonschema.Schema, error) {
	if schemaJSON == "" {
		return nil, nil
	}

	url := taskType + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource for %s: %w", taskType, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile JSON schema for %s: %w", taskType, err)
	}
	return schema, nil
}

// validatePayload checks payload against schema. An empty payload is
// validated as an empty object so required properties are still enforced.
func validatePayload(schema *jsonschema.Schema, payload json.RawMessage) error {
	if schema == nil {
		return nil
	}

	raw := bytes.TrimSpace(payload)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrInvalidPayload, err)
	}

	if err := schema.Validate(data); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalidPayload, describe(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// describe flattens a validation error tree into its leaf messages.
func describe(verr *jsonschema.ValidationError) string {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return loc + ": " + verr.Message
	}
	parts := make([]string, 0, len(verr.Causes))
	for _, c := range verr.Causes {
		parts = append(parts, describe(c))
	}
	return strings.Join(parts, "; ")
}
