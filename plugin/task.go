package plugin

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
	"github.com/vine-io/flowgen/compiler"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/sysprop"
	"github.com/vine-io/flowgen/writer"
	log "github.com/vine-io/vine/lib/logger"
)

// buildTask holds what every flowgen task shares.
type buildTask struct {
	ext      *config.Extension
	props    *sysprop.Properties
	compiler *compiler.Compiler
}

func newBuildTask(ext *config.Extension, props *sysprop.Properties) buildTask {
	if props == nil {
		props = sysprop.Default()
	}
	return buildTask{
		ext:      ext,
		props:    props,
		compiler: compiler.New(compiler.WithModule(ext.Module)),
	}
}

func (t *buildTask) dirs() writer.Dirs {
	return writer.Dirs{
		Classes:   t.ext.OutputDirectory,
		Sources:   t.ext.GeneratedSources,
		Resources: t.ext.GeneratedResources,
	}
}

func (t *buildTask) write(dirs writer.Dirs, files []*api.GeneratedFile) error {
	if len(files) == 0 {
		return nil
	}
	w, err := writer.New(dirs, runtime.NumCPU())
	if err != nil {
		return err
	}
	defer w.Release()

	if err = w.WriteAll(files); err != nil {
		return err
	}
	stats := w.Stats()
	log.Infof("%d files (%d bytes) written", stats.Files, stats.Bytes)
	return nil
}

// generate runs the application generator over the project resources.
// The extension properties are set for the duration of the call only and
// never replace a property that is already set.
func (t *buildTask) generate(ctx context.Context, partial bool) ([]*api.GeneratedFile, error) {
	release := t.props.AcquireAll(t.ext.Properties)
	defer release()

	cctx, err := codegen.NewContext(ctx, t.ext, t.props)
	if err != nil {
		return nil, err
	}
	log.Infof("generating %s from %d resources (build %s)", t.ext.Module, len(cctx.Resources), cctx.BuildID)

	g := codegen.NewApplicationGenerator(cctx)
	if partial {
		return g.GenerateComponents()
	}
	return g.Generate()
}

// compile compiles the SOURCE files of files against the output directory
// and returns the resulting class files.
func (t *buildTask) compile(files []*api.GeneratedFile) ([]*api.GeneratedFile, error) {
	sources := map[string][]byte{}
	for _, f := range api.FilterCategory(files, api.CategorySource) {
		sources[f.Path] = f.Contents
	}
	if len(sources) == 0 {
		return nil, nil
	}

	result, err := t.compiler.Compile(sources, compiler.Classpath{t.ext.OutputDirectory})
	if err != nil {
		return nil, api.Wrap(err, api.StatusCompileFailed, "compile %d sources", len(sources))
	}
	for _, w := range result.Warnings {
		log.Warnf("%v", w)
	}

	out := make([]*api.GeneratedFile, 0, len(result.Classes))
	for _, name := range sortedNames(result.Classes) {
		out = append(out, api.NewGeneratedFile(api.CompiledClass, name, result.Classes[name]))
	}
	log.Infof("%d sources compiled into %d classes", len(sources), len(out))
	return out, nil
}

// CompileAndWrite compiles the SOURCE files of files and persists the
// outcome. COMPILED_CLASS files are keyed by dotted package and written to
// their class path; every other category is written as is. Nothing is
// written when compilation fails.
func (t *buildTask) CompileAndWrite(files []*api.GeneratedFile) error {
	classes, err := t.compile(files)
	if err != nil {
		return err
	}

	out := make([]*api.GeneratedFile, 0, len(files)+len(classes))
	for _, f := range files {
		if f.Category() == api.CategoryCompiledClass {
			f = api.NewGeneratedFile(f.Type, codegen.ClassPath(f.Path), f.Contents)
		}
		out = append(out, f)
	}
	out = append(out, classes...)
	return t.write(t.dirs(), out)
}

// Cleanup deletes the rule sources copied below the output directory
// unless keepSources is set.
func (t *buildTask) Cleanup(keepSources bool) error {
	if keepSources {
		return nil
	}
	root := t.ext.OutputDirectory
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**/*.drl")
	if err != nil {
		return errors.Wrap(err, "delete drl files")
	}
	for _, m := range matches {
		if err = os.Remove(filepath.Join(root, filepath.FromSlash(m))); err != nil {
			return errors.Wrap(err, "delete drl files")
		}
	}
	if len(matches) > 0 {
		log.Infof("%d drl files deleted from %s", len(matches), root)
	}
	return nil
}

func sortedNames(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
