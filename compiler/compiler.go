// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package compiler type checks generated Go sources in memory and produces
// the export data of every compiled package. Nothing is written to disk.
package compiler

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/vine-io/vine/lib/logger"
	"golang.org/x/tools/go/gcexportdata"
)

// ClassExt is the extension of compiled package files.
const ClassExt = ".a"

// Classpath lists directories holding previously compiled packages. The
// package with import path <module>/<dir> is read from <root>/<dir>.a.
type Classpath []string

// Result is the outcome of a successful compilation.
type Result struct {
	// Classes maps class paths to package export data.
	Classes map[string][]byte
	// Warnings never fail a compilation.
	Warnings []Diagnostic
}

type Options struct {
	// Module is the import path prefix of the compiled sources.
	Module string
}

type Option func(o *Options)

// WithModule sets the import path prefix of the compiled sources.
func WithModule(module string) Option {
	return func(o *Options) {
		o.Module = module
	}
}

func NewOptions(opts ...Option) Options {
	var options Options
	for _, o := range opts {
		o(&options)
	}
	if options.Module == "" {
		options.Module = "flowgen.local/app"
	}
	return options
}

// Compiler compiles sets of sources held in memory.
type Compiler struct {
	options Options
}

func New(opts ...Option) *Compiler {
	return &Compiler{options: NewOptions(opts...)}
}

// ImportPath returns the import path of the package in directory dir.
func (c *Compiler) ImportPath(dir string) string {
	dir = path.Clean(dir)
	if dir == "." {
		return c.options.Module
	}
	return path.Join(c.options.Module, dir)
}

type unit struct {
	dir     string
	name    string
	path    string
	files   []*ast.File
	imports []string
	pkg     *types.Package
	failed  bool
}

// classFile is the class file of the package with import path ip: its path
// below the module plus ClassExt, or <last module element>.a for the module
// root package. Writing and reading classes share this rule.
func (c *Compiler) classFile(ip string) string {
	module := c.options.Module
	rel := ip
	switch {
	case ip == module:
		rel = path.Base(module)
	case strings.HasPrefix(ip, module+"/"):
		rel = strings.TrimPrefix(ip, module+"/")
	}
	return rel + ClassExt
}

// inModule reports whether ip names a package of the compiled module.
func (c *Compiler) inModule(ip string) bool {
	module := c.options.Module
	return ip == module || strings.HasPrefix(ip, module+"/")
}

// isStd reports whether ip is a standard library path: the first element
// of those never holds a dot.
func isStd(ip string) bool {
	first := ip
	if i := strings.Index(ip, "/"); i >= 0 {
		first = ip[:i]
	}
	return first != "" && !strings.Contains(first, ".")
}

// Compile compiles sources, keyed by slash separated relative path, against
// the packages of cp. It returns a *CompileError listing every error when
// any source fails; the result is then nil.
func (c *Compiler) Compile(sources map[string][]byte, cp Classpath) (*Result, error) {
	fset := token.NewFileSet()
	diags := make([]Diagnostic, 0)
	report := func(d Diagnostic) {
		diags = append(diags, d)
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	units := map[string]*unit{}
	for _, name := range names {
		src := sources[name]
		rel := path.Clean(filepath.ToSlash(name))
		file, err := parser.ParseFile(fset, rel, src, parser.ParseComments)
		if err != nil {
			reportParseError(report, rel, err)
			continue
		}
		if formatted, err := format.Source(src); err == nil && !bytes.Equal(formatted, src) {
			report(Diagnostic{Path: rel, Line: 1, Column: 1, Severity: SeverityWarning, Message: "source is not gofmt formatted"})
		}

		dir := path.Dir(rel)
		u, ok := units[dir]
		if !ok {
			u = &unit{dir: dir, name: file.Name.Name, path: c.ImportPath(dir)}
			units[dir] = u
		}
		if u.name != file.Name.Name {
			pos := fset.Position(file.Name.Pos())
			report(Diagnostic{
				Path:     rel,
				Line:     pos.Line,
				Column:   pos.Column,
				Severity: SeverityError,
				Message:  fmt.Sprintf("found packages %s and %s in %s", u.name, file.Name.Name, dir),
			})
			continue
		}
		u.files = append(u.files, file)
		for _, spec := range file.Imports {
			ip, _ := strconv.Unquote(spec.Path.Value)
			u.imports = append(u.imports, ip)
		}
	}

	byPath := map[string]*unit{}
	for _, u := range units {
		byPath[u.path] = u
	}
	ordered, cycles := order(units, byPath)
	for _, cycle := range cycles {
		u := byPath[cycle[0]]
		report(Diagnostic{
			Path:     u.dir,
			Severity: SeverityError,
			Message:  "import cycle not allowed: " + strings.Join(cycle, " -> "),
		})
		u.failed = true
	}

	imp := newImporter(fset, c, cp, byPath)
	for _, u := range ordered {
		if u.failed {
			continue
		}
		conf := types.Config{
			Importer: imp,
			// soft errors such as unused imports fail the build as with gc
			Error: func(err error) {
				u.failed = true
				reportTypeError(report, fset, err)
			},
		}
		pkg, _ := conf.Check(u.path, fset, u.files, nil)
		u.pkg = pkg
		if !u.failed {
			imp.packages[u.path] = pkg
		}
	}

	sortDiagnostics(diags)
	errs := make([]Diagnostic, 0)
	warnings := make([]Diagnostic, 0)
	for _, d := range diags {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		} else {
			warnings = append(warnings, d)
		}
	}
	if len(errs) > 0 {
		return nil, newCompileError(errs)
	}

	result := &Result{Classes: map[string][]byte{}, Warnings: warnings}
	for _, u := range ordered {
		buf := bytes.NewBuffer(nil)
		if err := gcexportdata.Write(buf, fset, u.pkg); err != nil {
			return nil, errors.Wrapf(err, "write export data of %s", u.path)
		}
		result.Classes[c.classFile(u.path)] = buf.Bytes()
	}
	for _, w := range warnings {
		log.Debugf("compile: %v", w)
	}

	return result, nil
}

// order sorts units so that every package follows the in-call packages it
// imports. Import cycles are returned as import path chains.
func order(units map[string]*unit, byPath map[string]*unit) ([]*unit, [][]string) {
	dirs := make([]string, 0, len(units))
	for dir := range units {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	out := make([]*unit, 0, len(units))
	cycles := make([][]string, 0)
	stack := make([]string, 0)

	var visit func(u *unit)
	visit = func(u *unit) {
		switch state[u.path] {
		case done:
			return
		case visiting:
			i := len(stack) - 1
			for i >= 0 && stack[i] != u.path {
				i--
			}
			cycle := append(append([]string{}, stack[i:]...), u.path)
			cycles = append(cycles, cycle)
			return
		}
		state[u.path] = visiting
		stack = append(stack, u.path)
		imports := append([]string{}, u.imports...)
		sort.Strings(imports)
		for _, ip := range imports {
			if dep, ok := byPath[ip]; ok {
				visit(dep)
			}
		}
		stack = stack[:len(stack)-1]
		state[u.path] = done
		out = append(out, u)
	}
	for _, dir := range dirs {
		visit(units[dir])
	}

	return out, cycles
}

func reportParseError(report func(Diagnostic), rel string, err error) {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			report(Diagnostic{
				Path:     rel,
				Line:     e.Pos.Line,
				Column:   e.Pos.Column,
				Severity: SeverityError,
				Message:  e.Msg,
			})
		}
		return
	}
	report(Diagnostic{Path: rel, Severity: SeverityError, Message: err.Error()})
}

func reportTypeError(report func(Diagnostic), fset *token.FileSet, err error) {
	terr, ok := err.(types.Error)
	if !ok {
		report(Diagnostic{Severity: SeverityError, Message: err.Error()})
		return
	}
	pos := fset.Position(terr.Pos)
	report(Diagnostic{
		Path:     pos.Filename,
		Line:     pos.Line,
		Column:   pos.Column,
		Severity: SeverityError,
		Message:  terr.Msg,
	})
}

// classImporter resolves imports from packages compiled in the same call,
// then from the classpath, then from the standard library sources. Other
// paths are never looked up.
type classImporter struct {
	fset     *token.FileSet
	compiler *Compiler
	cp       Classpath
	units    map[string]*unit
	packages map[string]*types.Package
	std      types.Importer
}

func newImporter(fset *token.FileSet, c *Compiler, cp Classpath, units map[string]*unit) *classImporter {
	return &classImporter{
		fset:     fset,
		compiler: c,
		cp:       cp,
		units:    units,
		packages: map[string]*types.Package{},
		std:      importer.ForCompiler(fset, "source", nil),
	}
}

func (imp *classImporter) Import(ip string) (*types.Package, error) {
	if pkg, ok := imp.packages[ip]; ok && pkg.Complete() {
		return pkg, nil
	}
	if u, ok := imp.units[ip]; ok {
		if u.failed || u.pkg == nil {
			return nil, errors.Errorf("package %s has errors", ip)
		}
		return u.pkg, nil
	}

	if class, ok := imp.lookup(ip); ok {
		f, err := os.Open(class)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", class)
		}
		defer f.Close()
		pkg, err := gcexportdata.Read(f, imp.fset, imp.packages, ip)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", class)
		}
		return pkg, nil
	}

	// paths outside the standard library resolve from the classpath only
	if imp.compiler.inModule(ip) || !isStd(ip) {
		return nil, errors.Errorf("could not import %s: not found in the compiled packages or on the classpath", ip)
	}
	pkg, err := imp.std.Import(ip)
	if err != nil {
		return nil, errors.Wrapf(err, "could not import %s", ip)
	}
	imp.packages[ip] = pkg
	return pkg, nil
}

func (imp *classImporter) lookup(ip string) (string, bool) {
	rel := filepath.FromSlash(imp.compiler.classFile(ip))
	for _, root := range imp.cp {
		class := filepath.Join(root, rel)
		if fi, err := os.Stat(class); err == nil && !fi.IsDir() {
			return class, true
		}
	}
	return "", false
}
