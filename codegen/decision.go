package codegen

import (
	"path"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/schema"
)

// DecisionGenerator generates input types and descriptors of DMN models.
type DecisionGenerator struct{}

func (g *DecisionGenerator) Name() string { return "decisions" }

func (g *DecisionGenerator) IsEmpty(ctx *Context) bool {
	return len(ctx.ResourcesOf(KindDecision)) == 0
}

func (g *DecisionGenerator) Generate(ctx *Context) (*Output, error) {
	out := &Output{}
	dirs := map[string]string{}
	for _, r := range ctx.ResourcesOf(KindDecision) {
		m, err := schema.ParseDMN(r.Data)
		if err != nil {
			return nil, api.BadRequest("%s: %v", r.Path, err)
		}

		base := GoName(m.Name)
		dir := path.Join("decisions", PackageName(base))
		if prev, ok := dirs[dir]; ok {
			return nil, api.Conflict("decision model %q of %s collides with %s", m.Name, r.Path, prev)
		}
		dirs[dir] = r.Path

		pkgOut, err := g.generateModel(ctx, r, m, base, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "generate %s", r.Path)
		}
		out.merge(pkgOut)
	}
	return out, nil
}

func (g *DecisionGenerator) generateModel(ctx *Context, r *Resource, m *schema.DMN, base, dir string) (*Output, error) {
	pkg := PackageName(dir)
	e := NewEmitter(pkg, r.Path)
	out := &Output{}

	items := map[string]*schema.ItemDefinition{}
	for _, item := range m.Items {
		items[item.Name] = item
	}
	resolve := func(ref string) string {
		item, ok := items[ref]
		if !ok {
			return GoType(ref)
		}
		if len(item.Components) > 0 {
			return GoName(item.Name)
		}
		return GoType(item.TypeRef)
	}

	for _, item := range m.Items {
		if len(item.Components) == 0 {
			continue
		}
		names, refs := make([]string, 0), make([]string, 0)
		for _, c := range item.Components {
			names = append(names, c.Name)
			refs = append(refs, c.TypeRef)
		}
		emitStruct(e, GoName(item.Name), "", fields(names, refs, resolve))
	}

	names, refs := make([]string, 0), make([]string, 0)
	for _, in := range m.Inputs {
		names = append(names, in.Name)
		refs = append(refs, in.TypeRef())
	}
	input := &Descriptor{
		TypeName:     base + "Input",
		Package:      pkg,
		Dir:          dir,
		ImportPath:   ctx.ImportPath(dir),
		Source:       r.Path,
		Fields:       fields(names, refs, resolve),
		Capabilities: []Capability{CapabilityModel},
	}
	emitStruct(e, input.TypeName, input.TypeName+" holds the input data of decision model "+m.Name+".", input.Fields)
	out.Descriptors = append(out.Descriptors, input)

	e.P("// DecisionModel describes a DMN model.")
	e.P("type DecisionModel struct {")
	e.P("Name string")
	e.P("Namespace string")
	e.P("Resource string")
	e.P("Decisions []string")
	e.P("}")
	e.P()
	modelVar := base + "Model"
	e.P("var ", modelVar, " = &DecisionModel{")
	e.P("Name: ", strconv.Quote(m.Name), ",")
	e.P("Namespace: ", strconv.Quote(m.Namespace), ",")
	e.P("Resource: ", strconv.Quote(r.Path), ",")
	e.P("Decisions: ", emitStrings(m.DecisionNames()), ",")
	e.P("}")

	data, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	out.Files = append(out.Files,
		api.NewGeneratedFile(api.Source, path.Join(dir, "model.go"), data),
		api.NewGeneratedFile(api.InternalResource, r.Path, r.Data),
	)
	out.Entries = append(out.Entries, Entry{Kind: "decision", ID: m.Name, Dir: dir, Var: modelVar})
	return out, nil
}
