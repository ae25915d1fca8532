package codegen

import (
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/bpmn"
	"github.com/vine-io/flowgen/cmmn"
	"github.com/vine-io/flowgen/process"
)

// ProcessGenerator generates the models and definitions of BPMN processes
// and CMMN cases.
type ProcessGenerator struct{}

func (g *ProcessGenerator) Name() string { return "processes" }

func (g *ProcessGenerator) IsEmpty(ctx *Context) bool {
	return len(ctx.ResourcesOf(KindProcess, KindCase)) == 0
}

// Parse reads every process and case resource of the context.
func (g *ProcessGenerator) Parse(ctx *Context) ([]*process.Process, error) {
	out := make([]*process.Process, 0)
	for _, r := range ctx.ResourcesOf(KindProcess, KindCase) {
		var (
			data *process.BuildData
			err  error
		)
		if r.Kind == KindCase {
			_, data, err = cmmn.Parse(r.Path, r.Data)
		} else {
			_, data, err = bpmn.Parse(r.Path, r.Data)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, data.Processes()...)
	}
	return out, nil
}

func (g *ProcessGenerator) Generate(ctx *Context) (*Output, error) {
	processes, err := g.Parse(ctx)
	if err != nil {
		return nil, err
	}
	return g.GenerateModels(ctx, processes)
}

// GenerateModels generates the files of process models built in memory.
func (g *ProcessGenerator) GenerateModels(ctx *Context, processes []*process.Process) (*Output, error) {
	byDir := map[string][]*process.Process{}
	for _, p := range processes {
		dir := PackageDir(p.Package)
		byDir[dir] = append(byDir[dir], p)
	}

	out := &Output{}
	for _, dir := range sortedKeys(byDir) {
		pkgOut, err := g.generatePackage(ctx, dir, byDir[dir])
		if err != nil {
			return nil, err
		}
		out.merge(pkgOut)
	}
	return out, nil
}

func (g *ProcessGenerator) generatePackage(ctx *Context, dir string, processes []*process.Process) (*Output, error) {
	pkg := PackageName(dir)
	out := &Output{}

	e := NewEmitter(pkg, "")
	emitDefinitionTypes(e)
	data, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	out.Files = append(out.Files, api.NewGeneratedFile(api.Source, path.Join(dir, "definition.go"), data))

	types := map[string]string{}
	claim := func(name, owner string) error {
		if prev, ok := types[name]; ok {
			return api.Conflict("type %s of %s collides with %s in package %s", name, owner, prev, dir)
		}
		types[name] = owner
		return nil
	}
	files := map[string]string{}

	for _, p := range processes {
		base := GoName(p.Id)
		e := NewEmitter(pkg, p.Resource)

		names, refs := make([]string, 0), make([]string, 0)
		for _, v := range p.Variables {
			names = append(names, v.Name)
			refs = append(refs, v.Type)
		}
		model := &Descriptor{
			TypeName:     base + "Model",
			Package:      pkg,
			Dir:          dir,
			ImportPath:   ctx.ImportPath(dir),
			Source:       p.Resource,
			Fields:       fields(names, refs, nil),
			Capabilities: []Capability{CapabilityModel, CapabilityProcessInput},
		}
		if err = claim(model.TypeName, p.Id); err != nil {
			return nil, err
		}
		emitStruct(e, model.TypeName, model.TypeName+" holds the variables of "+p.Kind.String()+" "+p.Id+".", model.Fields)
		e.P("// ", GoName(p.Kind.String()), "ID returns the id of the model's ", p.Kind.String(), ".")
		e.P("func (m *", model.TypeName, ") ", GoName(p.Kind.String()), "ID() string { return ", strconv.Quote(p.Id), " }")
		e.P()
		out.Descriptors = append(out.Descriptors, model)

		for _, task := range p.HumanTasks() {
			names, refs := make([]string, 0), make([]string, 0)
			for _, v := range task.Inputs {
				names = append(names, v.Name)
				refs = append(refs, v.Type)
			}
			input := &Descriptor{
				TypeName:     base + GoName(task.Id) + "Input",
				Package:      pkg,
				Dir:          dir,
				ImportPath:   ctx.ImportPath(dir),
				Source:       p.Resource,
				Fields:       fields(names, refs, nil),
				Capabilities: []Capability{CapabilityUserTaskInput},
			}
			if err = claim(input.TypeName, p.Id+"/"+task.Id); err != nil {
				return nil, err
			}
			taskName := task.Name
			if taskName == "" {
				taskName = task.Id
			}
			emitStruct(e, input.TypeName, input.TypeName+" is the input of human task "+taskName+".", input.Fields)
			out.Descriptors = append(out.Descriptors, input)
		}

		defVar := base + "Definition"
		if err = claim(defVar, p.Id); err != nil {
			return nil, err
		}
		emitDefinition(e, defVar, p)

		data, err := e.Bytes()
		if err != nil {
			return nil, errors.Wrapf(err, "generate %s", p.Id)
		}
		file := path.Join(dir, strings.ToLower(base)+"_"+p.Kind.String()+".go")
		if prev, ok := files[file]; ok {
			return nil, api.Conflict("file %s of %s collides with %s", file, p.Id, prev)
		}
		files[file] = p.Id
		out.Files = append(out.Files, api.NewGeneratedFile(api.Source, file, data))
		out.Entries = append(out.Entries, Entry{Kind: p.Kind.String(), ID: p.Id, Dir: dir, Var: defVar})
	}

	return out, nil
}

func emitDefinitionTypes(e *Emitter) {
	e.P("// Definition describes a process or case model.")
	e.P("type Definition struct {")
	e.P("ID string")
	e.P("Name string")
	e.P("Kind string")
	e.P("Package string")
	e.P("Version string")
	e.P("Namespace string")
	e.P("Resource string")
	e.P("Nodes []Node")
	e.P("Connections []Connection")
	e.P("}")
	e.P()
	e.P("// Node is one node of a Definition.")
	e.P("type Node struct {")
	e.P("ID string")
	e.P("Name string")
	e.P("Shape string")
	e.P("Incoming []string")
	e.P("Outgoing []string")
	e.P("}")
	e.P()
	e.P("type Connection struct {")
	e.P("ID string")
	e.P("Source string")
	e.P("Target string")
	e.P("Condition string")
	e.P("}")
	e.P()
	e.P("// Node returns the node with the given id.")
	e.P("func (d *Definition) Node(id string) (Node, bool) {")
	e.P("for _, n := range d.Nodes {")
	e.P("if n.ID == id {")
	e.P("return n, true")
	e.P("}")
	e.P("}")
	e.P("return Node{}, false")
	e.P("}")
}

func emitDefinition(e *Emitter, name string, p *process.Process) {
	e.P("// ", name, " describes ", p.Kind.String(), " ", p.Id, ".")
	e.P("var ", name, " = &Definition{")
	e.P("ID: ", strconv.Quote(p.Id), ",")
	e.P("Name: ", strconv.Quote(p.Name), ",")
	e.P("Kind: ", strconv.Quote(p.Kind.String()), ",")
	e.P("Package: ", strconv.Quote(p.Package), ",")
	e.P("Version: ", strconv.Quote(p.Version), ",")
	e.P("Namespace: ", strconv.Quote(p.TargetNamespace()), ",")
	e.P("Resource: ", strconv.Quote(p.Resource), ",")
	e.P("Nodes: []Node{")
	p.Nodes.Scan(func(id string, n *process.Node) bool {
		e.P("{ID: ", strconv.Quote(n.Id), ", Name: ", strconv.Quote(n.Name), ", Shape: ", strconv.Quote(n.Shape.String()),
			", Incoming: ", emitStrings(n.Incoming), ", Outgoing: ", emitStrings(n.Outgoing), "},")
		return true
	})
	e.P("},")
	e.P("Connections: []Connection{")
	p.Connections.Scan(func(id string, c *process.Connection) bool {
		e.P("{ID: ", strconv.Quote(c.Id), ", Source: ", strconv.Quote(c.Source), ", Target: ", strconv.Quote(c.Target),
			", Condition: ", strconv.Quote(c.Condition), "},")
		return true
	})
	e.P("},")
	e.P("}")
}
