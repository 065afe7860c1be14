package loader

import (
	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed entity.schema.json
var entitySchemaText string

// entitySchema vets each record in entities/*.json before any world
// construction happens, so structural problems surface as load errors
// with file and record context instead of runtime surprises.
var entitySchema = jsonschema.MustCompileString("entity.schema.json", entitySchemaText)
