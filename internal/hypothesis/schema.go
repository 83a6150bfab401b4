package hypothesis

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema is the closed wire contract for one upstream proposal.
// Fields outside the contract are legal (engines attach debug payloads)
// but never validated or interpreted. Cross-field rules the schema cannot
// express (start <= end) are checked in Go after decode.
const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["raw_id", "start_offset", "end_offset", "confidence", "source"],
  "properties": {
    "raw_id": {"type": "string", "minLength": 1},
    "start_offset": {"type": "integer"},
    "end_offset": {"type": "integer"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "source": {
      "type": "object",
      "required": ["engine", "batch"],
      "properties": {
        "engine": {"type": "string", "minLength": 1},
        "batch": {"type": "integer", "minimum": 0},
        "pass": {"type": "integer", "minimum": 0}
      }
    },
    "evidence": {"type": "string"}
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compileSchemaOnce  sync.Once
	compileSchemaError error
)

// RecordSchema returns the compiled record schema. Compilation happens once;
// a compile failure is a programming error surfaced on first use.
func RecordSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader([]byte(recordSchema))); err != nil {
			compileSchemaError = fmt.Errorf("failed to load record schema: %w", err)
			return
		}
		schema, err := compiler.Compile("record.json")
		if err != nil {
			compileSchemaError = fmt.Errorf("failed to compile record schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compileSchemaError
}
