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

package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Header starts every generated Go source.
const Header = "// Code generated by flowgen. DO NOT EDIT."

// Import is one import of a generated file. Use records that the file refers
// to the package and returns the name to print.
type Import struct {
	path string
	name string
	used bool
}

func (i *Import) Use() string {
	i.used = true
	return i.name
}

// Emitter accumulates the body of one Go source file.
type Emitter struct {
	pkg     string
	source  string
	imports map[string]*Import
	buf     bytes.Buffer
}

// NewEmitter starts a file of package pkg generated from source.
func NewEmitter(pkg, source string) *Emitter {
	return &Emitter{pkg: pkg, source: source, imports: map[string]*Import{}}
}

// NewImport registers an import and returns its handle. Importing the same
// path twice returns the first handle.
func (e *Emitter) NewImport(path, name string) *Import {
	if imp, ok := e.imports[path]; ok {
		return imp
	}
	imp := &Import{path: path, name: name}
	e.imports[path] = imp
	return imp
}

// P prints the arguments and a newline.
func (e *Emitter) P(args ...interface{}) {
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			e.buf.WriteString(v)
		case *Import:
			e.buf.WriteString(v.Use())
		case bool:
			fmt.Fprintf(&e.buf, "%t", v)
		case int, int32, int64, uint, uint32, uint64, float64:
			fmt.Fprint(&e.buf, v)
		default:
			fmt.Fprintf(&e.buf, "%v", v)
		}
	}
	e.buf.WriteByte('\n')
}

// Comment prints text as line comments, one per line of text.
func (e *Emitter) Comment(text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		e.P("// ", strings.TrimSpace(line))
	}
}

// Bytes renders the complete gofmt'ed file.
func (e *Emitter) Bytes() ([]byte, error) {
	out := bytes.NewBuffer(nil)
	fmt.Fprintln(out, Header)
	if e.source != "" {
		fmt.Fprintf(out, "// source: %s\n", e.source)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "package %s\n\n", e.pkg)

	paths := make([]string, 0, len(e.imports))
	for path, imp := range e.imports {
		if imp.used {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	if len(paths) > 0 {
		fmt.Fprintln(out, "import (")
		for _, path := range paths {
			imp := e.imports[path]
			if imp.name == lastElement(path) {
				fmt.Fprintf(out, "\t%q\n", path)
			} else {
				fmt.Fprintf(out, "\t%s %q\n", imp.name, path)
			}
		}
		fmt.Fprintln(out, ")")
		fmt.Fprintln(out)
	}
	out.Write(e.buf.Bytes())

	formatted, err := format.Source(out.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "format generated package %s", e.pkg)
	}
	return formatted, nil
}

func lastElement(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
