package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vine-io/flowgen/api"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	ext, err := Load(filepath.Join(dir, FileName))
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, dir, ext.ProjectDir)
	assert.Equal(t, filepath.Join(dir, "build"), ext.BuildDir)
	assert.Equal(t, filepath.Join(dir, "build", "classes"), ext.OutputDirectory)
	assert.Equal(t, filepath.Join(dir, "build", "generated", "sources", "flowgen"), ext.GeneratedSources)
	assert.Equal(t, filepath.Join(dir, "build", "generated", "resources", "flowgen"), ext.GeneratedResources)
	assert.Equal(t, filepath.Join(dir, "build"), ext.GenerateModel.BuildOutputDirectory)
	assert.Equal(t, []string{filepath.Join(dir, "resources")}, ext.ResourceDirs)
	assert.True(t, ext.Persistence)
	assert.True(t, ext.GenerateRules)
	assert.True(t, ext.GenerateProcesses)
	assert.True(t, ext.GenerateDecisions)
	assert.True(t, ext.GeneratePredictions)
	assert.True(t, ext.AutoBuild)
	assert.False(t, ext.GenerateModel.GeneratePartial)
	assert.Equal(t, DefaultSchemaVersion, ext.ProcessClasses.SchemaVersion)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
module: example.com/orders
buildDir: out
generateRules: false
autoBuild: false
properties:
  flowgen.indexfile.directory: /tmp/index
generateModel:
  generatePartial: true
  keepSources: true
processClasses:
  schemaVersion: draft-2019-09
`)
	path := filepath.Join(dir, FileName)
	if !assert.NoError(t, os.WriteFile(path, data, 0o644)) {
		return
	}

	ext, err := Load(path, WithOnDemand(true))
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, "example.com/orders", ext.Module)
	assert.Equal(t, filepath.Join(dir, "out", "classes"), ext.OutputDirectory)
	assert.False(t, ext.GenerateRules)
	assert.True(t, ext.GenerateProcesses)
	assert.False(t, ext.AutoBuild)
	assert.True(t, ext.GenerateModel.GeneratePartial)
	assert.True(t, ext.GenerateModel.KeepSources)
	assert.True(t, ext.GenerateModel.OnDemand)
	assert.Equal(t, "/tmp/index", ext.Properties["flowgen.indexfile.directory"])
	assert.Equal(t, "draft-2019-09", ext.ProcessClasses.SchemaVersion)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if !assert.NoError(t, os.WriteFile(path, []byte("module: [unclosed"), 0o644)) {
		return
	}

	_, err := Load(path)
	assert.True(t, api.IsCode(err, api.StatusBadRequest))
}

func TestValidateRequiresModule(t *testing.T) {
	_, err := NewExtension(t.TempDir(), WithModule(""))
	assert.True(t, api.IsCode(err, api.StatusPreconditionFailed))
}
