package codegen

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/compiler"
	"github.com/vine-io/flowgen/drl"
	"github.com/vine-io/flowgen/sysprop"
	log "github.com/vine-io/vine/lib/logger"
)

// RuleIndexFile is the path of the rule unit index below the index file
// directory.
const RuleIndexFile = "META-INF/flowgen/rule-units.index"

// RuleGenerator compiles the rule units of DRL resources. Every rule package
// is emitted as a compiled class keyed by its dotted package name, together
// with its DRL resources.
type RuleGenerator struct{}

func (g *RuleGenerator) Name() string { return "rules" }

func (g *RuleGenerator) IsEmpty(ctx *Context) bool {
	return len(ctx.ResourcesOf(KindRule)) == 0
}

func (g *RuleGenerator) Generate(ctx *Context) (*Output, error) {
	byPackage := map[string][]*drl.Resource{}
	out := &Output{}
	for _, r := range ctx.ResourcesOf(KindRule) {
		res, err := drl.Scan(r.Path, r.Data)
		if err != nil {
			return nil, api.BadRequest("%v", err)
		}
		if res.Package == "" {
			return nil, api.BadRequest("%s: rule resource without package", r.Path)
		}
		byPackage[res.Package] = append(byPackage[res.Package], res)
		out.Files = append(out.Files, api.NewGeneratedFile(api.Rule, r.Path, r.Data))
	}

	sources := map[string][]byte{}
	index := make([]string, 0)
	for _, pkg := range sortedKeys(byPackage) {
		dir := PackageDir(pkg)
		src, units, err := g.unitSource(dir, byPackage[pkg])
		if err != nil {
			return nil, err
		}
		sources[path.Join(dir, "units.go")] = src
		for _, unit := range units {
			index = append(index, pkg+"."+unit)
			out.Entries = append(out.Entries, Entry{Kind: "rule", ID: pkg + "." + unit, Dir: dir})
		}
	}
	if len(sources) == 0 {
		return out, nil
	}

	result, err := compiler.New(compiler.WithModule(ctx.Module)).Compile(sources, nil)
	if err != nil {
		return nil, errors.Wrap(err, "compile rule units")
	}
	for _, classPath := range sortedKeys(result.Classes) {
		dotted := DottedPackage(strings.TrimSuffix(classPath, compiler.ClassExt))
		out.Files = append(out.Files, api.NewGeneratedFile(api.CompiledClass, dotted, result.Classes[classPath]))
	}

	if err = writeIndex(ctx.Properties, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *RuleGenerator) unitSource(dir string, resources []*drl.Resource) ([]byte, []string, error) {
	type unit struct {
		rules     []string
		queries   []string
		resources []string
	}
	units := map[string]*unit{}
	for _, r := range resources {
		u, ok := units[r.UnitName()]
		if !ok {
			u = &unit{}
			units[r.UnitName()] = u
		}
		u.rules = append(u.rules, r.Rules...)
		u.queries = append(u.queries, r.Queries...)
		u.resources = append(u.resources, r.Path)
	}

	e := NewEmitter(PackageName(dir), "")
	e.P("// Unit is a rule unit and the rules it evaluates.")
	e.P("type Unit struct {")
	e.P("Name string")
	e.P("Rules []string")
	e.P("Queries []string")
	e.P("Resources []string")
	e.P("}")
	e.P()
	e.P("// Units lists the rule units of the package.")
	e.P("var Units = []Unit{")
	names := sortedKeys(units)
	for _, name := range names {
		u := units[name]
		sort.Strings(u.resources)
		e.P("{Name: ", strconv.Quote(name), ", Rules: ", emitStrings(u.rules), ", Queries: ", emitStrings(u.queries),
			", Resources: ", emitStrings(u.resources), "},")
	}
	e.P("}")

	data, err := e.Bytes()
	if err != nil {
		return nil, nil, err
	}
	return data, names, nil
}

// writeIndex writes the rule unit index into the directory named by the
// index file directory property. Nothing is written when it is unset.
func writeIndex(props *sysprop.Properties, units []string) error {
	if props == nil || len(units) == 0 {
		return nil
	}
	dir, ok := props.Get(sysprop.IndexFileDirectory)
	if !ok || dir == "" {
		return nil
	}

	target := filepath.Join(dir, filepath.FromSlash(RuleIndexFile))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, "create rule index directory")
	}
	if err := os.WriteFile(target, []byte(strings.Join(units, "\n")+"\n"), 0o644); err != nil {
		return errors.Wrap(err, "write rule index")
	}
	log.Debugf("rule unit index written to %s", target)
	return nil
}
