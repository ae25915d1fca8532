package plugin

import (
	"context"

	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/sysprop"
)

// ScaffoldTask generates the application once into the customizable
// sources path, where the sources become part of the project.
type ScaffoldTask struct {
	buildTask
}

func NewScaffoldTask(ext *config.Extension, props *sysprop.Properties) *ScaffoldTask {
	return &ScaffoldTask{buildTask: newBuildTask(ext, props)}
}

func (t *ScaffoldTask) Execute(ctx context.Context) error {
	opts := t.ext.GenerateModel
	if opts.CustomizableSourcesPath == "" {
		return api.PreconditionFailed("customizable sources path is not set").WithCaller()
	}
	if opts.BuildOutputDirectory != "" {
		release := t.props.Acquire(sysprop.IndexFileDirectory, opts.BuildOutputDirectory)
		defer release()
	}

	files, err := t.generate(ctx, opts.GeneratePartial)
	if err != nil {
		return err
	}

	out := make([]*api.GeneratedFile, 0, len(files))
	for _, f := range files {
		if f.Category() == api.CategoryCompiledClass {
			f = api.NewGeneratedFile(f.Type, codegen.ClassPath(f.Path), f.Contents)
		}
		out = append(out, f)
	}
	dirs := t.dirs()
	dirs.Sources = opts.CustomizableSourcesPath
	if err = t.write(dirs, out); err != nil {
		return err
	}
	return t.Cleanup(opts.KeepSources)
}
