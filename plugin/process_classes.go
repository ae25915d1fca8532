package plugin

import (
	"context"

	"github.com/vine-io/flowgen/api"
	"github.com/vine-io/flowgen/codegen"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/persistence"
	"github.com/vine-io/flowgen/sysprop"
	log "github.com/vine-io/vine/lib/logger"
)

// ProcessClassesTask reads the model manifest of the compiled application
// and generates its persistence layer and JSON schemas.
type ProcessClassesTask struct {
	buildTask
}

func NewProcessClassesTask(ext *config.Extension, props *sysprop.Properties) *ProcessClassesTask {
	return &ProcessClassesTask{buildTask: newBuildTask(ext, props)}
}

func (t *ProcessClassesTask) Execute(ctx context.Context) error {
	m, err := codegen.ReadManifest(t.ext.OutputDirectory)
	if err != nil {
		if api.IsCode(err, api.StatusNotFound) {
			log.Infof("no model manifest in %s, skip model classes", t.ext.OutputDirectory)
			return nil
		}
		return err
	}

	cctx := &codegen.Context{
		Module:     t.ext.Module,
		BuildID:    m.BuildID,
		Properties: t.props,
	}

	if t.ext.Persistence {
		files, err := persistence.FromManifest(cctx, m).Generate()
		if err != nil {
			return api.Wrap(err, api.StatusInternalServerError, "generate persistence")
		}
		classes, err := t.compile(files)
		if err != nil {
			return err
		}

		// marshaller sources only live in memory
		out := api.FilterCategory(files, api.CategoryInternalResource, api.CategoryStaticHTTPResource)
		if err = t.write(t.dirs(), append(out, classes...)); err != nil {
			return err
		}
	}

	types := append(m.With(codegen.CapabilityProcessInput), m.With(codegen.CapabilityUserTaskInput)...)
	schemas, err := persistence.NewJSONSchemaGenerator(t.ext.ProcessClasses.SchemaVersion, types).Generate()
	if err != nil {
		return api.Wrap(err, api.StatusInternalServerError, "generate json schemas")
	}
	return t.write(t.dirs(), schemas)
}
