package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const module = "example.com/app"

func TestCompileSingleSource(t *testing.T) {
	sources := map[string][]byte{
		"Foo.go": []byte("package foo\n\ntype Foo struct {\n\tName string\n}\n"),
	}

	result, err := New(WithModule(module)).Compile(sources, nil)
	if !assert.NoError(t, err) {
		return
	}
	assert.Len(t, result.Classes, 1)
	assert.NotEmpty(t, result.Classes["app.a"])
	assert.Empty(t, result.Warnings)
}

func TestCompileAggregatesErrors(t *testing.T) {
	sources := map[string][]byte{
		"good/good.go": []byte("package good\n\nfunc Good() int { return 1 }\n"),
		"bad/bad.go":   []byte("package bad\n\nfunc Bad() int { return \"x\" }\n\nvar y = undefined\n"),
	}

	result, err := New(WithModule(module)).Compile(sources, nil)
	assert.Nil(t, result)

	var cerr *CompileError
	if !assert.ErrorAs(t, err, &cerr) {
		return
	}
	assert.Len(t, cerr.Diagnostics, 2)
	assert.Len(t, cerr.Errors(), 2)
	for _, d := range cerr.Diagnostics {
		assert.Equal(t, "bad/bad.go", d.Path)
		assert.Equal(t, SeverityError, d.Severity)
	}
}

func TestCompileSyntaxError(t *testing.T) {
	sources := map[string][]byte{
		"a/a.go": []byte("package a\n\nfunc {\n"),
	}
	_, err := New().Compile(sources, nil)

	var cerr *CompileError
	if assert.ErrorAs(t, err, &cerr) {
		assert.Equal(t, 3, cerr.Diagnostics[0].Line)
	}
}

func TestCompileOrdersPackagesByImports(t *testing.T) {
	sources := map[string][]byte{
		"a/a.go": []byte("package a\n\nimport \"example.com/app/b\"\n\nfunc A() int { return b.B() + 1 }\n"),
		"b/b.go": []byte("package b\n\nimport \"strings\"\n\nfunc B() int { return len(strings.TrimSpace(\" b \")) }\n"),
	}

	result, err := New(WithModule(module)).Compile(sources, nil)
	if !assert.NoError(t, err) {
		return
	}
	assert.Len(t, result.Classes, 2)
	assert.Contains(t, result.Classes, "a.a")
	assert.Contains(t, result.Classes, "b.a")
}

func TestCompileImportCycle(t *testing.T) {
	sources := map[string][]byte{
		"a/a.go": []byte("package a\n\nimport \"example.com/app/b\"\n\nvar A = b.B\n"),
		"b/b.go": []byte("package b\n\nimport \"example.com/app/a\"\n\nvar B = a.A\n"),
	}

	_, err := New(WithModule(module)).Compile(sources, nil)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "import cycle not allowed")
	}
}

func TestCompileMixedPackageNames(t *testing.T) {
	sources := map[string][]byte{
		"a/x.go": []byte("package a\n"),
		"a/y.go": []byte("package other\n"),
	}

	_, err := New(WithModule(module)).Compile(sources, nil)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "found packages a and other")
	}
}

func TestCompileAgainstClasspath(t *testing.T) {
	c := New(WithModule(module))
	first, err := c.Compile(map[string][]byte{
		"model/model.go": []byte("package model\n\ntype Order struct {\n\tTotal int\n}\n"),
	}, nil)
	if !assert.NoError(t, err) {
		return
	}

	dir := t.TempDir()
	for name, data := range first.Classes {
		if !assert.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644)) {
			return
		}
	}

	second, err := c.Compile(map[string][]byte{
		"marshal/marshal.go": []byte("package marshal\n\nimport \"example.com/app/model\"\n\nfunc Total(o *model.Order) int { return o.Total }\n"),
	}, Classpath{dir})
	if !assert.NoError(t, err) {
		return
	}
	assert.Len(t, second.Classes, 1)
	assert.Contains(t, second.Classes, "marshal.a")
}

func TestCompileRootPackageAgainstClasspath(t *testing.T) {
	c := New(WithModule(module))
	first, err := c.Compile(map[string][]byte{
		"Foo.go": []byte("package foo\n\ntype Foo struct {\n\tName string\n}\n"),
	}, nil)
	if !assert.NoError(t, err) {
		return
	}

	dir := t.TempDir()
	for name, data := range first.Classes {
		if !assert.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644)) {
			return
		}
	}

	second, err := c.Compile(map[string][]byte{
		"use/use.go": []byte("package use\n\nimport foo \"example.com/app\"\n\nfunc Name(f foo.Foo) string { return f.Name }\n"),
	}, Classpath{dir})
	if !assert.NoError(t, err) {
		return
	}
	assert.Contains(t, second.Classes, "use.a")
}

func TestCompileUnknownImport(t *testing.T) {
	sources := map[string][]byte{
		"a/a.go": []byte("package a\n\nimport \"example.org/x\"\n\nvar V = x.V\n"),
		"b/b.go": []byte("package b\n\nimport \"example.com/app/missing\"\n\nvar V = missing.V\n"),
		"c/c.go": []byte("package c\n\nimport \"strings\"\n\nvar V = strings.ToUpper(\"c\")\n"),
	}

	result, err := New(WithModule(module)).Compile(sources, Classpath{t.TempDir()})
	assert.Nil(t, result)

	var cerr *CompileError
	if !assert.ErrorAs(t, err, &cerr) {
		return
	}
	paths := map[string]bool{}
	for _, d := range cerr.Diagnostics {
		paths[d.Path] = true
		if strings.Contains(d.Message, "import") {
			assert.Contains(t, d.Message, "not found in the compiled packages or on the classpath")
		}
	}
	assert.Equal(t, map[string]bool{"a/a.go": true, "b/b.go": true}, paths)
}

func TestIsStd(t *testing.T) {
	for ip, want := range map[string]bool{
		"strings":             true,
		"encoding/json":       true,
		"example.org/x":       false,
		"github.com/pkg/errs": false,
		"":                    false,
	} {
		assert.Equal(t, want, isStd(ip), ip)
	}
}

func TestCompileWarnsUnformattedSource(t *testing.T) {
	sources := map[string][]byte{
		"Foo.go": []byte("package foo\ntype   Foo struct{}\n"),
	}

	result, err := New().Compile(sources, nil)
	if !assert.NoError(t, err) {
		return
	}
	if assert.Len(t, result.Warnings, 1) {
		assert.Equal(t, SeverityWarning, result.Warnings[0].Severity)
		assert.True(t, strings.HasPrefix(result.Warnings[0].Error(), "Foo.go:1:1: WARNING"))
	}
}
