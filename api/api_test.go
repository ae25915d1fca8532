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
	"errors"
	"reflect"
	"testing"

	json "github.com/json-iterator/go"
)

// TestCategoryRoundTrip tests that grouping files by category and flattening
// the groups keeps every file, each under the category of its type.
func TestCategoryRoundTrip(t *testing.T) {
	files := []*GeneratedFile{
		NewGeneratedFile(CompiledClass, "org.acme.rules", nil),
		NewGeneratedFile(Source, "a/a.go", nil),
		NewGeneratedFile(Rule, "rules/r.drl", nil),
		NewGeneratedFile(JSONSchema, "jsonSchema/a.json", nil),
		NewGeneratedFile(Source, "b/b.go", nil),
		NewGeneratedFile(Proto, "META-INF/a.proto", nil),
		NewGeneratedFile(StaticHTTPResource, "index.html", nil),
		NewGeneratedFile(InternalResource, "META-INF/index.json", nil),
	}

	groups := GroupByCategory(files)
	for category, group := range groups {
		for _, f := range group {
			if f.Category() != category {
				t.Errorf("%s grouped under %s", f.Path, category)
			}
		}
	}

	flat := Flatten(groups)
	if len(flat) != len(files) {
		t.Fatalf("flatten returned %d files, want %d", len(flat), len(files))
	}
	want := []string{
		"a/a.go", "b/b.go",
		"rules/r.drl", "META-INF/a.proto", "META-INF/index.json",
		"jsonSchema/a.json", "index.html",
		"org.acme.rules",
	}
	got := make([]string, 0, len(flat))
	for _, f := range flat {
		got = append(got, f.Path)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("flatten = %v, want %v", got, want)
	}
}

func TestCategoryJSON(t *testing.T) {
	for _, c := range Categories {
		data, err := json.Marshal(c)
		if err != nil {
			t.Fatal(err)
		}
		var got Category
		if err = json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got != c {
			t.Errorf("%s decoded as %s", c, got)
		}
	}

	var c Category
	if err := json.Unmarshal([]byte(`"BINARY"`), &c); err == nil {
		t.Error("unknown category decoded")
	}
}

func TestNewGeneratedFileCleansPath(t *testing.T) {
	tests := map[string]string{
		"a/./b.go":      "a/b.go",
		`a\b\c.go`:      "a/b/c.go",
		"a/b/../c.go":   "a/c.go",
		"org.acme.rule": "org.acme.rule",
	}
	for in, want := range tests {
		if got := NewGeneratedFile(Source, in, nil).Path; got != want {
			t.Errorf("path of %q = %q, want %q", in, got, want)
		}
	}
}

func TestFilterAndValidateCategories(t *testing.T) {
	files := []*GeneratedFile{
		NewGeneratedFile(Source, "a.go", nil),
		NewGeneratedFile(Rule, "a.drl", nil),
		NewGeneratedFile(JSONSchema, "a.json", nil),
	}

	if got := FilterCategory(files, CategoryInternalResource, CategoryStaticHTTPResource); len(got) != 2 {
		t.Errorf("filter returned %d files, want 2", len(got))
	}
	if err := ValidateCategories(files, CategorySource, CategoryInternalResource, CategoryStaticHTTPResource); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateCategories(files, CategorySource); !IsCode(err, StatusBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestFileSet(t *testing.T) {
	s := NewFileSet(
		NewGeneratedFile(Source, "b.go", []byte("b")),
		NewGeneratedFile(Source, "a.go", []byte("a")),
		NewGeneratedFile(InternalResource, "a.go", []byte("resource")),
	)
	s.Add(NewGeneratedFile(Source, "a.go", []byte("a2")))

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	f, ok := s.Get(CategorySource, "a.go")
	if !ok || string(f.Contents) != "a2" {
		t.Errorf("get returned %v, %v", f, ok)
	}

	got := make([]string, 0)
	for _, f := range s.List() {
		got = append(got, f.Category().String()+":"+f.Path)
	}
	want := []string{"INTERNAL_RESOURCE:a.go", "SOURCE:a.go", "SOURCE:b.go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("list = %v, want %v", got, want)
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err  *Error
		code StatusCode
	}{
		{BadRequest("bad"), StatusBadRequest},
		{NotFound("missing"), StatusNotFound},
		{Conflict("twice"), StatusConflict},
		{PreconditionFailed("unset"), StatusPreconditionFailed},
		{CompileFailed("broken"), StatusCompileFailed},
		{InternalServerError("boom"), StatusInternalServerError},
		{NotImplemented("later"), StatusNotImplemented},
	}
	for _, tt := range tests {
		if !IsCode(tt.err, tt.code) {
			t.Errorf("%v does not carry %d", tt.err, tt.code)
		}
		if tt.err.Status != tt.code.String() {
			t.Errorf("status = %q, want %q", tt.err.Status, tt.code.String())
		}
		if parsed := Parse(tt.err.Error()); !Equal(parsed, tt.err) {
			t.Errorf("parse of %s lost the code", tt.err)
		}
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, StatusInternalServerError, "write %s", "a.go").WithOp("generate")

	if !errors.Is(err, cause) {
		t.Error("cause lost")
	}
	if err.Detail != "write a.go: disk full" || err.Op != "generate" {
		t.Errorf("unexpected error %v", err)
	}
	if FromErr(err) != err {
		t.Error("FromErr must keep an *Error")
	}
	if got := FromErr(cause); !IsCode(got, StatusInternalServerError) || !errors.Is(got, cause) {
		t.Errorf("FromErr(%v) = %v", cause, got)
	}
	if FromErr(nil) != nil {
		t.Error("FromErr(nil) must be nil")
	}
	if e := New("x", StatusNotFound).WithCaller(); e.Caller == "" {
		t.Error("caller not set")
	}
}
