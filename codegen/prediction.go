package codegen

import (
	"path"
	"strconv"
	"strings"

	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/schema"
)

// PredictionGenerator generates input and output types of PMML models.
type PredictionGenerator struct{}

func (g *PredictionGenerator) Name() string { return "predictions" }

func (g *PredictionGenerator) IsEmpty(ctx *Context) bool {
	return len(ctx.ResourcesOf(KindPrediction)) == 0
}

func (g *PredictionGenerator) Generate(ctx *Context) (*Output, error) {
	out := &Output{}
	for _, r := range ctx.ResourcesOf(KindPrediction) {
		doc, err := schema.ParsePMML(r.Data)
		if err != nil {
			return nil, api.BadRequest("%s: %v", r.Path, err)
		}

		name := strings.TrimSuffix(path.Base(r.Path), path.Ext(r.Path))
		dir := path.Join("predictions", PackageName(GoName(name)))
		pkg := PackageName(dir)
		e := NewEmitter(pkg, r.Path)
		resolve := func(field string) string {
			if f, ok := doc.Field(field); ok {
				return GoType(f.DataType)
			}
			return GoType("")
		}

		e.P("// PredictionModel describes a PMML model.")
		e.P("type PredictionModel struct {")
		e.P("Name string")
		e.P("Kind string")
		e.P("Function string")
		e.P("Resource string")
		e.P("Inputs []string")
		e.P("Targets []string")
		e.P("}")
		e.P()

		for _, model := range doc.Predictions() {
			base := GoName(model.ModelName)
			inputs, targets := model.Inputs(), model.Targets()

			input := &Descriptor{
				TypeName:     base + "Input",
				Package:      pkg,
				Dir:          dir,
				ImportPath:   ctx.ImportPath(dir),
				Source:       r.Path,
				Fields:       fields(inputs, inputs, resolve),
				Capabilities: []Capability{CapabilityModel},
			}
			emitStruct(e, input.TypeName, "", input.Fields)
			emitStruct(e, base+"Output", "", fields(targets, targets, resolve))
			out.Descriptors = append(out.Descriptors, input)

			modelVar := base + "Prediction"
			e.P("var ", modelVar, " = &PredictionModel{")
			e.P("Name: ", strconv.Quote(model.ModelName), ",")
			e.P("Kind: ", strconv.Quote(model.Kind()), ",")
			e.P("Function: ", strconv.Quote(model.FunctionName), ",")
			e.P("Resource: ", strconv.Quote(r.Path), ",")
			e.P("Inputs: ", emitStrings(inputs), ",")
			e.P("Targets: ", emitStrings(targets), ",")
			e.P("}")
			e.P()
			out.Entries = append(out.Entries, Entry{Kind: "prediction", ID: model.ModelName, Dir: dir, Var: modelVar})
		}

		data, err := e.Bytes()
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files,
			api.NewGeneratedFile(api.Source, path.Join(dir, "model.go"), data),
			api.NewGeneratedFile(api.InternalResource, r.Path, r.Data),
		)
	}
	return out, nil
}
