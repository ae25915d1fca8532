package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/vine-io/flowgen/plugin"
)

func TestTasksCommand(t *testing.T) {
	dir := t.TempDir()
	out := &bytes.Buffer{}

	cmd := rootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"tasks", "-p", dir})
	if !assert.NoError(t, cmd.Execute()) {
		return
	}
	for _, name := range []string{plugin.GenerateModelTaskName, plugin.ScaffoldTaskName, plugin.ProcessClassesTaskName, plugin.CompileFlowgenTaskName} {
		assert.Contains(t, out.String(), name)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	data := []byte("module: example.com/fromfile\npersistence: false\ngenerateModel:\n  keepSources: true\n")
	if !assert.NoError(t, os.WriteFile(filepath.Join(dir, "flowgen.yaml"), data, 0o644)) {
		return
	}

	f := &flags{}
	cmd := &cobra.Command{Use: "test"}
	f.bind(cmd)
	if !assert.NoError(t, cmd.ParseFlags([]string{"-p", dir, "--module", "example.com/flag", "-D", "a=b"})) {
		return
	}

	_, ext, err := f.project(cmd)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "example.com/flag", ext.Module)
	assert.False(t, ext.Persistence)
	assert.True(t, ext.GenerateModel.KeepSources)
	assert.Equal(t, "b", ext.Properties["a"])
}
