package reports

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kaptinlin/jsonschema"
)

// Field is one node of a report schema: a typed field with a description
// used both as an output constraint and as a prompt instruction.
type Field struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]*Field `json:"properties,omitempty"`
	Items       *Field            `json:"items,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

// Schema is a named field structure used as the target shape for synthesis.
type Schema struct {
	Name string `json:"name"`
	Root *Field `json:"root"`
}

// JSON renders the field tree as a JSON Schema document.
func (s *Schema) JSON() ([]byte, error) {
	return json.Marshal(s.Root)
}

// Compile builds a validator for the field tree.
func (s *Schema) Compile() (*jsonschema.Schema, error) {
	raw, err := s.JSON()
	if err != nil {
		return nil, fmt.Errorf("reports: marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("reports: compile schema: %w", err)
	}
	return compiled, nil
}

// Validate checks a decoded model response against the field tree.
func (s *Schema) Validate(value any) error {
	compiled, err := s.Compile()
	if err != nil {
		return err
	}
	result := compiled.Validate(value)
	if !result.Valid {
		return fmt.Errorf("reports: response does not match schema: %v", result.Errors)
	}
	return nil
}

// FormatInstructions renders the prompt section that constrains the model's
// output to the schema.
func (s *Schema) FormatInstructions() string {
	raw, err := s.JSON()
	if err != nil {
		return ""
	}
	return fmt.Sprintf(
		"Respond ONLY with a JSON object that conforms to the following JSON Schema. Field descriptions tell you what each field must contain.\n\n%s",
		string(raw),
	)
}

// Helpers for declaring the built-in schemas.

func object(props map[string]*Field) *Field {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	sort.Strings(required)
	return &Field{Type: "object", Properties: props, Required: required}
}

func array(items *Field, desc string) *Field {
	return &Field{Type: "array", Items: items, Description: desc}
}

func str(desc string) *Field {
	return &Field{Type: "string", Description: desc}
}
