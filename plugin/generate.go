package plugin

import (
	"context"

	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/sysprop"
	log "github.com/vine-io/vine/lib/logger"
)

// GenerateModelTask generates the application sources and resources,
// compiles the sources and writes everything below the build directories.
type GenerateModelTask struct {
	buildTask
}

func NewGenerateModelTask(ext *config.Extension, props *sysprop.Properties) *GenerateModelTask {
	return &GenerateModelTask{buildTask: newBuildTask(ext, props)}
}

func (t *GenerateModelTask) Execute(ctx context.Context) error {
	opts := t.ext.GenerateModel
	if opts.BuildOutputDirectory == "" {
		return api.PreconditionFailed("build output directory is not set").WithCaller()
	}

	release := t.props.Acquire(sysprop.IndexFileDirectory, opts.BuildOutputDirectory)
	defer release()

	if opts.OnDemand {
		log.Info("On-demand mode is on. Run the flowgen scaffold task to generate sources.")
		return nil
	}

	files, err := t.generate(ctx, opts.GeneratePartial)
	if err != nil {
		return err
	}
	if err = t.CompileAndWrite(files); err != nil {
		return err
	}
	return t.Cleanup(opts.KeepSources)
}
