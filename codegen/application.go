package codegen

import (
	"path"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	log "github.com/vine-io/vine/lib/logger"
)

const (
	// ApplicationDir is the directory of the application registry package.
	ApplicationDir = "application"
	// IndexPath is the class output path of the resource index.
	IndexPath = "META-INF/flowgen/index.json"
)

// ApplicationGenerator runs every enabled generator over a context.
type ApplicationGenerator struct {
	ctx        *Context
	generators []Generator
}

// NewApplicationGenerator returns the generator of the application described
// by ctx, with one sub generator per enabled resource kind.
func NewApplicationGenerator(ctx *Context) *ApplicationGenerator {
	gens := make([]Generator, 0, 4)
	if ctx.GenerateProcesses {
		gens = append(gens, &ProcessGenerator{})
	}
	if ctx.GenerateDecisions {
		gens = append(gens, &DecisionGenerator{})
	}
	if ctx.GenerateRules {
		gens = append(gens, &RuleGenerator{})
	}
	if ctx.GeneratePredictions {
		gens = append(gens, &PredictionGenerator{})
	}
	return &ApplicationGenerator{ctx: ctx, generators: gens}
}

func (g *ApplicationGenerator) Generators() []Generator {
	return g.generators
}

func (g *ApplicationGenerator) components() (*Output, error) {
	out := &Output{}
	for _, gen := range g.generators {
		if gen.IsEmpty(g.ctx) {
			log.Debugf("generator %s has no resources", gen.Name())
			continue
		}
		part, err := gen.Generate(g.ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "%s generator", gen.Name())
		}
		log.Infof("generator %s produced %d file(s)", gen.Name(), len(part.Files))
		out.merge(part)
	}
	if err := checkOverlap(out.Files); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateComponents generates the per resource files only.
func (g *ApplicationGenerator) GenerateComponents() ([]*api.GeneratedFile, error) {
	out, err := g.components()
	if err != nil {
		return nil, err
	}
	return api.NewFileSet(out.Files...).List(), nil
}

// Generate generates the component files and the application level files:
// the registry package, the model manifest and the resource index.
func (g *ApplicationGenerator) Generate() ([]*api.GeneratedFile, error) {
	out, err := g.components()
	if err != nil {
		return nil, err
	}

	set := api.NewFileSet(out.Files...)

	registry, err := g.registry(out.Entries)
	if err != nil {
		return nil, err
	}
	set.Add(registry)

	manifest := &Manifest{BuildID: g.ctx.BuildID, Module: g.ctx.Module, Descriptors: out.Descriptors}
	manifest.Sort()
	mf, err := manifest.File()
	if err != nil {
		return nil, err
	}
	set.Add(mf)

	index, err := g.index(out.Entries)
	if err != nil {
		return nil, err
	}
	set.Add(index)

	return set.List(), nil
}

func (g *ApplicationGenerator) registry(entries []Entry) (*api.GeneratedFile, error) {
	e := NewEmitter(PackageName(ApplicationDir), "")
	e.P("// BuildID identifies the resources the application was generated from.")
	e.P("const BuildID = ", strconv.Quote(g.ctx.BuildID))
	e.P()
	e.P("// Entry is one element of the application.")
	e.P("type Entry struct {")
	e.P("Kind string")
	e.P("ID string")
	e.P("Package string")
	e.P("Definition interface{}")
	e.P("}")
	e.P()
	e.P("// Entries lists every process, case, decision, rule unit and prediction.")
	e.P("var Entries = []Entry{")
	for _, entry := range entries {
		def := "nil"
		if entry.Var != "" {
			imp := e.NewImport(g.ctx.ImportPath(entry.Dir), importAlias(entry.Dir))
			def = imp.Use() + "." + entry.Var
		}
		e.P("{Kind: ", strconv.Quote(entry.Kind), ", ID: ", strconv.Quote(entry.ID),
			", Package: ", strconv.Quote(DottedPackage(entry.Dir)), ", Definition: ", def, "},")
	}
	e.P("}")
	e.P()
	e.P("// Lookup returns the entry of the given kind and id.")
	e.P("func Lookup(kind, id string) (Entry, bool) {")
	e.P("for _, entry := range Entries {")
	e.P("if entry.Kind == kind && entry.ID == id {")
	e.P("return entry, true")
	e.P("}")
	e.P("}")
	e.P("return Entry{}, false")
	e.P("}")

	data, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	return api.NewGeneratedFile(api.Source, path.Join(ApplicationDir, "application.go"), data), nil
}

type indexEntry struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Package string `json:"package"`
}

type resourceIndex struct {
	BuildID   string       `json:"buildId"`
	Resources []string     `json:"resources"`
	Entries   []indexEntry `json:"entries"`
}

func (g *ApplicationGenerator) index(entries []Entry) (*api.GeneratedFile, error) {
	idx := resourceIndex{BuildID: g.ctx.BuildID, Resources: []string{}, Entries: []indexEntry{}}
	for _, r := range g.ctx.Resources {
		idx.Resources = append(idx.Resources, r.Path)
	}
	for _, e := range entries {
		idx.Entries = append(idx.Entries, indexEntry{Kind: e.Kind, ID: e.ID, Package: DottedPackage(e.Dir)})
	}
	sort.SliceStable(idx.Entries, func(i, j int) bool {
		if idx.Entries[i].Kind != idx.Entries[j].Kind {
			return idx.Entries[i].Kind < idx.Entries[j].Kind
		}
		return idx.Entries[i].ID < idx.Entries[j].ID
	})

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode resource index")
	}
	return api.NewGeneratedFile(api.InternalResource, IndexPath, data), nil
}

// checkOverlap rejects a compiled class whose package is also generated as
// source, since compiling the sources would replace it.
func checkOverlap(files []*api.GeneratedFile) error {
	dirs := map[string]struct{}{}
	for _, f := range api.FilterCategory(files, api.CategorySource) {
		dirs[DottedPackage(path.Dir(f.Path))] = struct{}{}
	}
	for _, f := range api.FilterCategory(files, api.CategoryCompiledClass) {
		if _, ok := dirs[f.Path]; ok {
			return api.Conflict("package %s is both compiled and generated as source", f.Path)
		}
	}
	return nil
}
