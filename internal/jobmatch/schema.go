package jobmatch

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ResultSchema is the JSON Schema of the canonical result shape. It is sent to
// the evaluator as the output contract and used to check normalized replies.
//
//go:embed result.schema.json
var ResultSchema string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(ResultSchema))
	})
	return schema, schemaErr
}

// ValidateResultShape reports where doc deviates from ResultSchema. doc is a
// decoded JSON value (map[string]any) or any value encoding/json can marshal.
// The returned violations are diagnostics; callers do not reject on them.
func ValidateResultShape(doc any) ([]string, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile result schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to validate result shape: %w", err)
	}
	if res.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return violations, nil
}
