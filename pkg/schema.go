package teldata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed event.schema.json
var eventSchema string

const eventSchemaURL = "https://teldata.local/schemas/event.schema.json"

// Schema checks wire documents against the published event schema. It is
// stricter than Parse: the wrapper keys are required.
type Schema struct {
	compiled *jsonschema.Schema
}

func NewSchema() (*Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(eventSchemaURL, bytes.NewReader([]byte(eventSchema))); err != nil {
		return nil, fmt.Errorf("event schema load failed: %w", err)
	}
	compiled, err := c.Compile(eventSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("event schema compile failed: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Check validates one document. Failures are reported as MalformedRecord.
func (s *Schema) Check(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return malformed("", "%v", err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}
