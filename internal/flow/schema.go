package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema document.
type Schema struct {
	name     string
	source   string
	compiled *gojsonschema.Schema
}

// CompileSchema parses and compiles a JSON Schema document.
func CompileSchema(name, doc string) (*Schema, error) {
	var probe map[string]any
	if err := json.Unmarshal([]byte(doc), &probe); err != nil {
		return nil, fmt.Errorf("schema %s is not valid json: %w", name, err)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(doc), "", "  "); err != nil {
		return nil, fmt.Errorf("format schema %s: %w", name, err)
	}

	return &Schema{name: name, source: pretty.String(), compiled: compiled}, nil
}

// Validate checks v (any JSON-encodable value) and returns one detail line per
// violation. Empty result means v conforms.
func (s *Schema) Validate(v any) ([]string, error) {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", s.name, err)
	}

	if result.Valid() {
		return nil, nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	sort.Strings(details)

	return details, nil
}

// String returns the indented schema document.
func (s *Schema) String() string { return s.source }
