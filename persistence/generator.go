package persistence

import (
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
)

// Generator produces the persistence files of the models of a manifest.
type Generator struct {
	proto       *ProtoGenerator
	marshallers *MarshallerGenerator
}

func NewGenerator(proto *ProtoGenerator, marshallers *MarshallerGenerator) *Generator {
	return &Generator{proto: proto, marshallers: marshallers}
}

// FromManifest wires the generators for the Model types of m.
func FromManifest(ctx *codegen.Context, m *codegen.Manifest) *Generator {
	protoGen := NewProtoGenerator(m.With(codegen.CapabilityModel))
	return NewGenerator(protoGen, NewMarshallerGenerator(ctx, protoGen.DataClasses()))
}

// Generate returns marshaller sources and descriptor resources. Compiled
// classes are never part of the output.
func (g *Generator) Generate() ([]*api.GeneratedFile, error) {
	files, err := g.proto.Generate()
	if err != nil {
		return nil, err
	}
	sources, err := g.marshallers.Generate()
	if err != nil {
		return nil, err
	}
	files = append(files, sources...)

	if err = api.ValidateCategories(files, api.CategorySource, api.CategoryInternalResource, api.CategoryStaticHTTPResource); err != nil {
		return nil, err
	}
	return files, nil
}
