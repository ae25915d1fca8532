package plugin

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
	"github.com/vine-io/flowgen/compiler"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/persistence"
	"github.com/vine-io/flowgen/sysprop"
)

const testModule = "example.com/app"

var fixtures = map[string]string{
	"approval.bpmn":   "approvals/approval.bpmn",
	"order-case.cmmn": "cases/order-case.cmmn",
	"traffic.dmn":     "decisions/traffic.dmn",
	"discount.drl":    "rules/discount.drl",
	"loan.pmml":       "predictions/loan.pmml",
}

func newExtension(t *testing.T, opts ...config.Option) *config.Extension {
	t.Helper()
	dir := t.TempDir()
	for src, dst := range fixtures {
		data, err := os.ReadFile(filepath.Join("..", "testdata", src))
		if err != nil {
			t.Fatal(err)
		}
		target := filepath.Join(dir, "resources", filepath.FromSlash(dst))
		if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatal(err)
		}
		if err = os.WriteFile(target, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	opts = append([]config.Option{config.WithModule(testModule)}, opts...)
	ext, err := config.NewExtension(dir, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return ext
}

// listFiles returns the slash separated files below root.
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	out := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(out)
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestGenerateModelRequiresBuildOutputDirectory(t *testing.T) {
	ext := newExtension(t)
	ext.GenerateModel.BuildOutputDirectory = ""

	err := NewGenerateModelTask(ext, sysprop.New()).Execute(context.TODO())
	assert.True(t, api.IsCode(err, api.StatusPreconditionFailed))
	assert.Empty(t, listFiles(t, ext.BuildDir))
}

func TestGenerateModel(t *testing.T) {
	ext := newExtension(t)
	props := sysprop.New()

	err := NewGenerateModelTask(ext, props).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}

	classes := ext.OutputDirectory
	for _, name := range []string{
		"application.a",
		"org/acme/approvals.a",
		"org/acme/orders.a",
		"org/acme/rules.a",
		"decisions/trafficviolation.a",
		"predictions/loan.a",
		"META-INF/flowgen/manifest.json",
		"META-INF/flowgen/index.json",
		"decisions/traffic.dmn",
		"predictions/loan.pmml",
	} {
		assert.True(t, exists(filepath.Join(classes, filepath.FromSlash(name))), name)
	}
	assert.False(t, exists(filepath.Join(classes, "rules", "discount.drl")))
	assert.False(t, exists(filepath.Join(classes, "org.acme.rules")))
	assert.True(t, exists(filepath.Join(ext.GeneratedSources, "application", "application.go")))
	assert.True(t, exists(filepath.Join(ext.GeneratedSources, "org", "acme", "approvals", "approvals_process.go")))
}

func TestGenerateModelKeepSources(t *testing.T) {
	ext := newExtension(t, config.WithKeepSources(true))

	err := NewGenerateModelTask(ext, sysprop.New()).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}
	assert.True(t, exists(filepath.Join(ext.OutputDirectory, "rules", "discount.drl")))
}

func TestGenerateModelPartial(t *testing.T) {
	ext := newExtension(t, config.WithGeneratePartial(true))

	err := NewGenerateModelTask(ext, sysprop.New()).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}
	assert.True(t, exists(filepath.Join(ext.OutputDirectory, "org", "acme", "approvals.a")))
	assert.False(t, exists(filepath.Join(ext.OutputDirectory, "application.a")))
	assert.False(t, exists(filepath.Join(ext.OutputDirectory, filepath.FromSlash(codegen.ManifestPath))))
}

func TestGenerateModelOnDemand(t *testing.T) {
	ext := newExtension(t, config.WithOnDemand(true))
	props := sysprop.New()

	err := NewGenerateModelTask(ext, props).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}
	assert.Empty(t, listFiles(t, ext.BuildDir))
	_, ok := props.Get(sysprop.IndexFileDirectory)
	assert.False(t, ok)
}

func TestIndexFileDirectoryClearedWhenUnset(t *testing.T) {
	ext := newExtension(t)
	props := sysprop.New()

	err := NewGenerateModelTask(ext, props).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}

	_, ok := props.Get(sysprop.IndexFileDirectory)
	assert.False(t, ok)
	index := filepath.Join(ext.GenerateModel.BuildOutputDirectory, filepath.FromSlash(codegen.RuleIndexFile))
	data, err := os.ReadFile(index)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "org.acme.rules.DiscountUnit\n", string(data))
}

func TestIndexFileDirectoryPreservedWhenPreset(t *testing.T) {
	ext := newExtension(t)
	props := sysprop.New()
	preset := t.TempDir()
	props.Set(sysprop.IndexFileDirectory, preset)

	err := NewGenerateModelTask(ext, props).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}

	value, ok := props.Get(sysprop.IndexFileDirectory)
	assert.True(t, ok)
	assert.Equal(t, preset, value)
	assert.True(t, exists(filepath.Join(preset, filepath.FromSlash(codegen.RuleIndexFile))))
	assert.False(t, exists(filepath.Join(ext.GenerateModel.BuildOutputDirectory, filepath.FromSlash(codegen.RuleIndexFile))))
}

func TestExtensionPropertiesDoNotReplacePreset(t *testing.T) {
	other := t.TempDir()
	ext := newExtension(t,
		config.WithProperty(sysprop.IndexFileDirectory, other),
		config.WithProperty("other.key", "v"),
	)
	props := sysprop.New()
	preset := t.TempDir()
	props.Set(sysprop.IndexFileDirectory, preset)

	err := NewGenerateModelTask(ext, props).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}

	value, ok := props.Get(sysprop.IndexFileDirectory)
	assert.True(t, ok)
	assert.Equal(t, preset, value)
	_, ok = props.Get("other.key")
	assert.False(t, ok)
	assert.Equal(t, []string{sysprop.IndexFileDirectory}, props.Keys())
	assert.True(t, exists(filepath.Join(preset, filepath.FromSlash(codegen.RuleIndexFile))))
	assert.False(t, exists(filepath.Join(other, filepath.FromSlash(codegen.RuleIndexFile))))
}

func TestExtensionPropertiesDoNotReplaceBuildOutput(t *testing.T) {
	other := t.TempDir()
	ext := newExtension(t,
		config.WithProperty(sysprop.IndexFileDirectory, other),
		config.WithProperty("other.key", "v"),
	)
	props := sysprop.New()

	err := NewGenerateModelTask(ext, props).Execute(context.TODO())
	if !assert.NoError(t, err) {
		return
	}

	assert.Empty(t, props.Keys())
	assert.True(t, exists(filepath.Join(ext.GenerateModel.BuildOutputDirectory, filepath.FromSlash(codegen.RuleIndexFile))))
	assert.False(t, exists(filepath.Join(other, filepath.FromSlash(codegen.RuleIndexFile))))
}

func TestIndexFileDirectoryClearedOnFailure(t *testing.T) {
	ext := newExtension(t)
	broken := filepath.Join(ext.ResourceDirs[0], "broken", "broken.bpmn")
	if !assert.NoError(t, os.MkdirAll(filepath.Dir(broken), 0o755)) {
		return
	}
	if !assert.NoError(t, os.WriteFile(broken, []byte("<definitions"), 0o644)) {
		return
	}
	props := sysprop.New()

	err := NewGenerateModelTask(ext, props).Execute(context.TODO())
	assert.Error(t, err)
	_, ok := props.Get(sysprop.IndexFileDirectory)
	assert.False(t, ok)
}

func TestCompileAndWriteFailure(t *testing.T) {
	ext := newExtension(t)
	task := NewGenerateModelTask(ext, sysprop.New())

	files := []*api.GeneratedFile{
		api.NewGeneratedFile(api.Source, "good/good.go", []byte("package good\n\ntype Good struct{}\n")),
		api.NewGeneratedFile(api.Source, "bad/bad.go", []byte("package bad\n\nfunc Bad( {\n")),
		api.NewGeneratedFile(api.InternalResource, "META-INF/data.json", []byte("{}")),
	}
	err := task.CompileAndWrite(files)
	if !assert.Error(t, err) {
		return
	}
	assert.True(t, api.IsCode(err, api.StatusCompileFailed))

	var cerr *compiler.CompileError
	if assert.True(t, errors.As(err, &cerr)) {
		assert.NotEmpty(t, cerr.Diagnostics)
		for _, d := range cerr.Diagnostics {
			assert.Equal(t, "bad/bad.go", d.Path)
		}
	}
	assert.Empty(t, listFiles(t, ext.BuildDir))
}

func TestCompileAndWriteSingleClass(t *testing.T) {
	ext := newExtension(t)
	task := NewGenerateModelTask(ext, sysprop.New())

	files := []*api.GeneratedFile{
		api.NewGeneratedFile(api.Source, "foo/foo.go", []byte("package foo\n\ntype Foo struct{}\n")),
	}
	if !assert.NoError(t, task.CompileAndWrite(files)) {
		return
	}
	assert.Equal(t, []string{"foo.a"}, listFiles(t, ext.OutputDirectory))
	assert.Equal(t, []string{"foo/foo.go"}, listFiles(t, ext.GeneratedSources))
}

func TestCompileAndWriteConvertsClassNames(t *testing.T) {
	ext := newExtension(t)
	task := NewGenerateModelTask(ext, sysprop.New())

	files := []*api.GeneratedFile{
		api.NewGeneratedFile(api.CompiledClass, "org.acme.rules", []byte("export data")),
		api.NewGeneratedFile(api.JSONSchema, "jsonSchema/a.json", []byte("{}")),
	}
	if !assert.NoError(t, task.CompileAndWrite(files)) {
		return
	}
	assert.Equal(t, []string{"org/acme/rules.a"}, listFiles(t, ext.OutputDirectory))
	assert.Equal(t, []string{"META-INF/resources/jsonSchema/a.json"}, listFiles(t, ext.GeneratedResources))
}

func TestCleanup(t *testing.T) {
	ext := newExtension(t)
	for _, name := range []string{"a.drl", "x/b.drl", "x/c.dmn", "keep.txt"} {
		target := filepath.Join(ext.OutputDirectory, filepath.FromSlash(name))
		if !assert.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755)) {
			return
		}
		if !assert.NoError(t, os.WriteFile(target, []byte(name), 0o644)) {
			return
		}
	}
	outside := filepath.Join(ext.BuildDir, "other.drl")
	if !assert.NoError(t, os.WriteFile(outside, []byte("rule"), 0o644)) {
		return
	}

	task := NewGenerateModelTask(ext, sysprop.New())
	if !assert.NoError(t, task.Cleanup(true)) {
		return
	}
	assert.Len(t, listFiles(t, ext.OutputDirectory), 4)

	if !assert.NoError(t, task.Cleanup(false)) {
		return
	}
	assert.Equal(t, []string{"keep.txt", "x/c.dmn"}, listFiles(t, ext.OutputDirectory))
	assert.True(t, exists(outside))
}

func TestCleanupMissingOutputDirectory(t *testing.T) {
	ext := newExtension(t)
	assert.NoError(t, NewGenerateModelTask(ext, sysprop.New()).Cleanup(false))
}

func TestProcessClasses(t *testing.T) {
	ext := newExtension(t)
	props := sysprop.New()
	if !assert.NoError(t, NewGenerateModelTask(ext, props).Execute(context.TODO())) {
		return
	}

	if !assert.NoError(t, NewProcessClassesTask(ext, props).Execute(context.TODO())) {
		return
	}

	classes := ext.OutputDirectory
	for _, name := range []string{
		persistence.DescriptorSetPath,
		"persistence/org/acme/approvals.a",
		"persistence/org/acme/orders.a",
		"persistence/decisions/trafficviolation.a",
	} {
		assert.True(t, exists(filepath.Join(classes, filepath.FromSlash(name))), name)
	}
	assert.False(t, exists(filepath.Join(ext.GeneratedSources, persistence.MarshallerDir)))

	schemas := listFiles(t, filepath.Join(ext.GeneratedResources, "META-INF", "resources", persistence.SchemaDir))
	assert.Len(t, schemas, 6)
	assert.Contains(t, schemas, "org.acme.approvals.ApprovalsModel.json")
}

func TestProcessClassesWithoutPersistence(t *testing.T) {
	ext := newExtension(t, config.WithPersistence(false))
	props := sysprop.New()
	if !assert.NoError(t, NewGenerateModelTask(ext, props).Execute(context.TODO())) {
		return
	}

	if !assert.NoError(t, NewProcessClassesTask(ext, props).Execute(context.TODO())) {
		return
	}
	assert.False(t, exists(filepath.Join(ext.OutputDirectory, filepath.FromSlash(persistence.DescriptorSetPath))))
	schemas := listFiles(t, filepath.Join(ext.GeneratedResources, "META-INF", "resources", persistence.SchemaDir))
	assert.Len(t, schemas, 6)
}

func TestProcessClassesWithoutManifest(t *testing.T) {
	ext := newExtension(t)
	assert.NoError(t, NewProcessClassesTask(ext, sysprop.New()).Execute(context.TODO()))
	assert.Empty(t, listFiles(t, ext.BuildDir))
}

func TestScaffold(t *testing.T) {
	ext := newExtension(t)
	if !assert.NoError(t, NewScaffoldTask(ext, sysprop.New()).Execute(context.TODO())) {
		return
	}

	custom := ext.GenerateModel.CustomizableSourcesPath
	assert.True(t, exists(filepath.Join(custom, "application", "application.go")))
	assert.Empty(t, listFiles(t, ext.GeneratedSources))
	assert.True(t, exists(filepath.Join(ext.OutputDirectory, "org", "acme", "rules.a")))
	assert.False(t, exists(filepath.Join(ext.OutputDirectory, "application.a")))
}

func TestReadSourcesConflict(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, root := range []string{a, b} {
		if !assert.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package app\n"), 0o644)) {
			return
		}
	}

	files, err := ReadSources(context.TODO(), a, a)
	if assert.NoError(t, err) {
		assert.Len(t, files, 1)
	}
	_, err = ReadSources(context.TODO(), a, b)
	assert.True(t, api.IsCode(err, api.StatusConflict))
}

func TestBuildChain(t *testing.T) {
	ext := newExtension(t)
	p, err := NewGoProject("app", ext, sysprop.New())
	if !assert.NoError(t, err) {
		return
	}

	if !assert.NoError(t, p.Run(context.TODO(), ClassesTaskName)) {
		return
	}
	classes := ext.OutputDirectory
	assert.True(t, exists(filepath.Join(classes, "application.a")))
	assert.True(t, exists(filepath.Join(classes, "persistence", "org", "acme", "approvals.a")))
	assert.False(t, exists(filepath.Join(classes, "rules", "discount.drl")))
}
