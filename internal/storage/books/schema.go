// Derives the index JSON Schema from the index types and validates raw index
// documents against it.

package books

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	schemavalidator "github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchemaExtend allows a missing or null page list at the book level.
func (indexBook) JSONSchemaExtend(s *jsonschema.Schema) { nullablePages(s) }

// JSONSchemaExtend allows a missing or null sub-page list.
func (indexPage) JSONSchemaExtend(s *jsonschema.Schema) { nullablePages(s) }

// JSONSchemaExtend allows a missing or null child list on leaves. Leaves with
// children are rejected after decoding.
func (indexSubPage) JSONSchemaExtend(s *jsonschema.Schema) { nullablePages(s) }

func nullablePages(s *jsonschema.Schema) {
	p, ok := s.Properties.Get("pages")
	if !ok {
		return
	}
	s.Properties.Set("pages", &jsonschema.Schema{AnyOf: []*jsonschema.Schema{p, {Type: "null"}}})
	s.Required = slices.DeleteFunc(s.Required, func(name string) bool { return name == "pages" })
}

// IndexSchema returns the JSON Schema of index.json documents.
func IndexSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true, AllowAdditionalProperties: true}
	return r.Reflect(&indexBook{})
}

var compiledIndexSchema = sync.OnceValues(func() (*schemavalidator.Schema, error) {
	raw, err := json.Marshal(IndexSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to encode index schema: %w", err)
	}
	c := schemavalidator.NewCompiler()
	c.Draft = schemavalidator.Draft2020
	if err := c.AddResource("index.schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add index schema: %w", err)
	}
	return c.Compile("index.schema.json")
})

// validateIndex checks a decoded JSON document against the index schema.
func validateIndex(doc any) error {
	s, err := compiledIndexSchema()
	if err != nil {
		return err
	}
	return s.Validate(doc)
}
