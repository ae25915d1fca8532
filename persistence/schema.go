package persistence

import (
	"path"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SchemaDir holds the JSON schemas below the static resources.
const SchemaDir = "jsonSchema"

// JSONSchemaGenerator describes process and user task inputs as JSON schemas.
type JSONSchemaGenerator struct {
	version string
	types   []*codegen.Descriptor
}

func NewJSONSchemaGenerator(version string, types []*codegen.Descriptor) *JSONSchemaGenerator {
	return &JSONSchemaGenerator{version: version, types: types}
}

type schemaProperty struct {
	Type string `json:"type,omitempty"`
}

type schemaDocument struct {
	Schema     string                    `json:"$schema,omitempty"`
	ID         string                    `json:"$id"`
	Title      string                    `json:"title"`
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
}

func jsonType(goType string) string {
	switch goType {
	case "string":
		return "string"
	case "int64":
		return "integer"
	case "float64":
		return "number"
	case "bool":
		return "boolean"
	case "interface{}":
		return ""
	default:
		return "object"
	}
}

// Generate returns one schema per type. Map keys are encoded in order so the
// output is stable.
func (g *JSONSchemaGenerator) Generate() ([]*api.GeneratedFile, error) {
	out := make([]*api.GeneratedFile, 0, len(g.types))
	for _, d := range g.types {
		doc := schemaDocument{
			Schema:     g.version,
			ID:         d.QualifiedName(),
			Title:      d.TypeName,
			Type:       "object",
			Properties: map[string]schemaProperty{},
		}
		for _, f := range d.Fields {
			doc.Properties[f.JSONName] = schemaProperty{Type: jsonType(f.GoType)}
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Wrapf(err, "encode schema of %s", d.TypeName)
		}
		out = append(out, api.NewGeneratedFile(api.JSONSchema, path.Join(SchemaDir, d.QualifiedName()+".json"), data))
	}
	return out, nil
}
