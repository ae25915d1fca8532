package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/sysprop"
	log "github.com/vine-io/vine/lib/logger"
)

// CompileTask compiles the Go sources found below a set of roots into the
// output directory.
type CompileTask struct {
	buildTask
	roots func() []string
}

// NewCompileTask compiles the generated sources, the customizable sources
// and the project sources.
func NewCompileTask(ext *config.Extension, props *sysprop.Properties) *CompileTask {
	return &CompileTask{
		buildTask: newBuildTask(ext, props),
		roots: func() []string {
			roots := []string{ext.GeneratedSources, ext.GenerateModel.CustomizableSourcesPath}
			return append(roots, ext.SourceDirs...)
		},
	}
}

// NewSourcesTask compiles the project sources only.
func NewSourcesTask(ext *config.Extension, props *sysprop.Properties) *CompileTask {
	return &CompileTask{
		buildTask: newBuildTask(ext, props),
		roots: func() []string {
			return ext.SourceDirs
		},
	}
}

func (t *CompileTask) Execute(ctx context.Context) error {
	files, err := ReadSources(ctx, t.roots()...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Infof("no Go sources to compile")
		return nil
	}

	classes, err := t.compile(files)
	if err != nil {
		return err
	}
	return t.write(t.dirs(), classes)
}

// ReadSources reads the non test Go files below roots as SOURCE files keyed
// by their path relative to the root. Missing and repeated roots are
// skipped; the same relative path under two roots is a conflict.
func ReadSources(ctx context.Context, roots ...string) ([]*api.GeneratedFile, error) {
	out := make([]*api.GeneratedFile, 0)
	owner := map[string]string{}
	visited := map[string]struct{}{}
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		if _, ok := visited[root]; ok {
			continue
		}
		visited[root] = struct{}{}
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(root), "**/*.go")
		if err != nil {
			return nil, errors.Wrapf(err, "list sources of %s", root)
		}
		for _, m := range matches {
			if err = ctx.Err(); err != nil {
				return nil, err
			}
			if strings.HasSuffix(m, "_test.go") {
				continue
			}
			if prev, ok := owner[m]; ok {
				return nil, api.Conflict("source %s found in %s and %s", m, prev, root)
			}
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(m)))
			if err != nil {
				return nil, errors.Wrapf(err, "read source %s", m)
			}
			owner[m] = root
			out = append(out, api.NewGeneratedFile(api.Source, m, data))
		}
	}
	return out, nil
}
