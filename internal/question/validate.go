package question

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// ValidationError lists every schema violation found in a question.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid question: " + strings.Join(e.Problems, "; ")
}

// ValidateJSON checks a raw question document against the question schema.
func ValidateJSON(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling question schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, re.String())
	}
	return &ValidationError{Problems: problems}
}

// Validate checks q against the question schema.
func (q Question) Validate() error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encoding question: %w", err)
	}
	return ValidateJSON(data)
}
