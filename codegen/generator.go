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
	"sort"
	"strconv"

	"github.com/vine-io/flowgen/api"
	log "github.com/vine-io/vine/lib/logger"
)

// Entry is one element registered in the application registry.
type Entry struct {
	Kind string
	ID   string
	Dir  string
	// Var is the exported variable of the package describing the element.
	Var string
}

// Output is what one generator produces for its resources.
type Output struct {
	Files       []*api.GeneratedFile
	Descriptors []*Descriptor
	Entries     []Entry
}

func (o *Output) merge(other *Output) {
	o.Files = append(o.Files, other.Files...)
	o.Descriptors = append(o.Descriptors, other.Descriptors...)
	o.Entries = append(o.Entries, other.Entries...)
}

// Generator turns the resources of one kind into component files.
type Generator interface {
	Name() string
	// IsEmpty reports that the context holds no resource for the generator.
	IsEmpty(ctx *Context) bool
	Generate(ctx *Context) (*Output, error)
}

// fields converts named, typed document variables into struct fields,
// dropping names that collide once converted. resolve maps a type reference
// to a Go type and defaults to GoType.
func fields(names, types []string, resolve func(string) string) []Field {
	if resolve == nil {
		resolve = GoType
	}
	out := make([]Field, 0, len(names))
	seen := map[string]struct{}{}
	for i, name := range names {
		goName := GoName(name)
		if _, ok := seen[goName]; ok {
			log.Warnf("field %s collides with an earlier field, skip it", name)
			continue
		}
		seen[goName] = struct{}{}
		out = append(out, Field{Name: name, GoName: goName, GoType: resolve(types[i]), JSONName: JSONName(name)})
	}
	return out
}

// emitStruct prints a struct type with JSON tags.
func emitStruct(e *Emitter, name, doc string, fs []Field) {
	if doc != "" {
		e.Comment(doc)
	}
	e.P("type ", name, " struct {")
	for _, f := range fs {
		e.P(f.GoName, " ", f.GoType, " `json:", strconv.Quote(f.JSONName+",omitempty"), "`")
	}
	e.P("}")
	e.P()
}

func emitStrings(values []string) string {
	if len(values) == 0 {
		return "nil"
	}
	out := "[]string{"
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += strconv.Quote(v)
	}
	return out + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
