package persistence

import (
	"path"
	"strconv"

	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
)

// MarshallerDir is the directory prefix of generated marshaller packages.
const MarshallerDir = "persistence"

// MarshallerGenerator emits one marshaller package per model package.
type MarshallerGenerator struct {
	ctx    *codegen.Context
	models []*codegen.Descriptor
}

func NewMarshallerGenerator(ctx *codegen.Context, models []*codegen.Descriptor) *MarshallerGenerator {
	return &MarshallerGenerator{ctx: ctx, models: models}
}

func (g *MarshallerGenerator) Generate() ([]*api.GeneratedFile, error) {
	byDir := map[string][]*codegen.Descriptor{}
	dirs := make([]string, 0)
	for _, d := range g.models {
		if _, ok := byDir[d.Dir]; !ok {
			dirs = append(dirs, d.Dir)
		}
		byDir[d.Dir] = append(byDir[d.Dir], d)
	}

	out := make([]*api.GeneratedFile, 0, len(dirs))
	for _, dir := range dirs {
		target := path.Join(MarshallerDir, dir)
		e := codegen.NewEmitter(codegen.PackageName(target), "")
		jsonPkg := e.NewImport("encoding/json", "json")
		model := e.NewImport(g.ctx.ImportPath(dir), "model")

		for _, d := range byDir[dir] {
			name := d.TypeName + "Marshaller"
			typ := model.Use() + "." + d.TypeName
			e.P("// ", name, " persists ", d.TypeName, " values.")
			e.P("type ", name, " struct{}")
			e.P()
			e.P("// TypeName is the protobuf message name of the model.")
			e.P("func (", name, ") TypeName() string { return ", strconv.Quote(d.QualifiedName()), " }")
			e.P()
			e.P("func (", name, ") Marshal(v *", typ, ") ([]byte, error) {")
			e.P("return ", jsonPkg, ".Marshal(v)")
			e.P("}")
			e.P()
			e.P("func (", name, ") Unmarshal(data []byte) (*", typ, ", error) {")
			e.P("v := &", typ, "{}")
			e.P("if err := ", jsonPkg, ".Unmarshal(data, v); err != nil {")
			e.P("return nil, err")
			e.P("}")
			e.P("return v, nil")
			e.P("}")
			e.P()
		}

		data, err := e.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, api.NewGeneratedFile(api.Source, path.Join(target, "marshaller.go"), data))
	}
	return out, nil
}
