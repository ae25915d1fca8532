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

package api

import (
	"fmt"
	"path"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/tidwall/btree"
)

// Category decides where a generated file is finally written.
type Category int32

const (
	CategorySource Category = iota + 1
	CategoryInternalResource
	CategoryStaticHTTPResource
	CategoryCompiledClass
)

// Categories lists every category in write order.
var Categories = []Category{
	CategorySource,
	CategoryInternalResource,
	CategoryStaticHTTPResource,
	CategoryCompiledClass,
}

func MapCategory(s string) Category {
	switch s {
	case "SOURCE":
		return CategorySource
	case "INTERNAL_RESOURCE":
		return CategoryInternalResource
	case "STATIC_HTTP_RESOURCE":
		return CategoryStaticHTTPResource
	case "COMPILED_CLASS":
		return CategoryCompiledClass
	default:
		return 0
	}
}

func (c Category) String() string {
	switch c {
	case CategorySource:
		return "SOURCE"
	case CategoryInternalResource:
		return "INTERNAL_RESOURCE"
	case CategoryStaticHTTPResource:
		return "STATIC_HTTP_RESOURCE"
	case CategoryCompiledClass:
		return "COMPILED_CLASS"
	default:
		return ""
	}
}

func (c Category) MarshalJSON() ([]byte, error) {
	s := c.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (c *Category) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	*c = MapCategory(s)
	if *c == 0 {
		return fmt.Errorf("invalid file category %s", s)
	}
	return nil
}

// FileType is a named kind of generated file bound to exactly one Category.
type FileType struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

func NewFileType(name string, category Category) FileType {
	return FileType{Name: name, Category: category}
}

func (t FileType) String() string {
	return t.Name + "(" + t.Category.String() + ")"
}

var (
	Source             = NewFileType("SOURCE", CategorySource)
	InternalResource   = NewFileType("INTERNAL_RESOURCE", CategoryInternalResource)
	StaticHTTPResource = NewFileType("STATIC_HTTP_RESOURCE", CategoryStaticHTTPResource)
	CompiledClass      = NewFileType("COMPILED_CLASS", CategoryCompiledClass)
	Rule               = NewFileType("RULE", CategoryInternalResource)
	Proto              = NewFileType("PROTO", CategoryInternalResource)
	JSONSchema         = NewFileType("JSON_SCHEMA", CategoryStaticHTTPResource)
)

// GeneratedFile is one artifact produced by code generation.
type GeneratedFile struct {
	Type     FileType `json:"type"`
	Path     string   `json:"path"`
	Contents []byte   `json:"-"`
}

func NewGeneratedFile(typ FileType, relativePath string, contents []byte) *GeneratedFile {
	return &GeneratedFile{
		Type:     typ,
		Path:     path.Clean(strings.ReplaceAll(relativePath, "\\", "/")),
		Contents: contents,
	}
}

func (f *GeneratedFile) Category() Category {
	return f.Type.Category
}

func (f *GeneratedFile) String() string {
	data, _ := json.Marshal(f)
	return string(data)
}

// GroupByCategory partitions files by category, keeping the input order
// inside every group.
func GroupByCategory(files []*GeneratedFile) map[Category][]*GeneratedFile {
	groups := make(map[Category][]*GeneratedFile, len(Categories))
	for _, file := range files {
		groups[file.Category()] = append(groups[file.Category()], file)
	}
	return groups
}

// Flatten reassembles groups produced by GroupByCategory in category order.
func Flatten(groups map[Category][]*GeneratedFile) []*GeneratedFile {
	out := make([]*GeneratedFile, 0)
	for _, category := range Categories {
		out = append(out, groups[category]...)
	}
	for category, files := range groups {
		if category.String() == "" {
			out = append(out, files...)
		}
	}
	return out
}

// FilterCategory returns the files in one of the given categories.
func FilterCategory(files []*GeneratedFile, categories ...Category) []*GeneratedFile {
	out := make([]*GeneratedFile, 0, len(files))
	for _, file := range files {
		for _, category := range categories {
			if file.Category() == category {
				out = append(out, file)
				break
			}
		}
	}
	return out
}

// ValidateCategories fails when a file has a category outside allowed.
func ValidateCategories(files []*GeneratedFile, allowed ...Category) error {
	for _, file := range files {
		ok := false
		for _, category := range allowed {
			if file.Category() == category {
				ok = true
				break
			}
		}
		if !ok {
			return BadRequest("%s has unexpected category %s", file.Path, file.Category())
		}
	}
	return nil
}

// FileSet is an ordered collection of generated files. Files are keyed by
// category and path, so adding the same artifact twice keeps one copy.
type FileSet struct {
	files btree.Map[string, *GeneratedFile]
}

func NewFileSet(files ...*GeneratedFile) *FileSet {
	s := &FileSet{}
	s.Add(files...)
	return s
}

func fileKey(f *GeneratedFile) string {
	return f.Category().String() + ":" + f.Path
}

func (s *FileSet) Add(files ...*GeneratedFile) {
	for _, file := range files {
		s.files.Set(fileKey(file), file)
	}
}

func (s *FileSet) Len() int {
	return s.files.Len()
}

func (s *FileSet) Get(category Category, relativePath string) (*GeneratedFile, bool) {
	return s.files.Get(category.String() + ":" + relativePath)
}

// List returns the files sorted by category name and path.
func (s *FileSet) List() []*GeneratedFile {
	out := make([]*GeneratedFile, 0, s.files.Len())
	s.files.Scan(func(key string, file *GeneratedFile) bool {
		out = append(out, file)
		return true
	})
	return out
}
