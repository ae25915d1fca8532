// Package plugin wires the flowgen build tasks into a project task graph.
package plugin

import (
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/sysprop"
)

const (
	Group = "flowgen"

	CompileTaskName        = "compile"
	ClassesTaskName        = "classes"
	GenerateModelTaskName  = "flowgenGenerateModel"
	ScaffoldTaskName       = "flowgenScaffold"
	ProcessClassesTaskName = "flowgenProcessClasses"
	CompileFlowgenTaskName = "compileFlowgen"
)

// NewGoProject returns a project holding the base compile and classes tasks
// with the flowgen tasks applied.
func NewGoProject(name string, ext *config.Extension, props *sysprop.Properties) (*Project, error) {
	p := NewProject(name)
	if err := Apply(p, ext, props); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply registers the flowgen tasks on p. The base compile and classes
// tasks are added when p lacks them.
func Apply(p *Project, ext *config.Extension, props *sysprop.Properties) error {
	if props == nil {
		props = sysprop.Default()
	}

	compile, ok := p.Task(CompileTaskName)
	if !ok {
		var err error
		if compile, err = p.Register(CompileTaskName, NewSourcesTask(ext, props).Execute); err != nil {
			return err
		}
		compile.Description = "Compiles the project sources."
	}
	classes, ok := p.Task(ClassesTaskName)
	if !ok {
		var err error
		if classes, err = p.Register(ClassesTaskName, nil); err != nil {
			return err
		}
		classes.Description = "Assembles the project classes."
		classes.DependsOn(CompileTaskName)
	}

	generateModel, err := p.Register(GenerateModelTaskName, NewGenerateModelTask(ext, props).Execute)
	if err != nil {
		return err
	}
	generateModel.Group = Group
	generateModel.Description = "Generates the application model, rules, decisions and predictions."
	generateModel.DependsOn(CompileTaskName)

	scaffold, err := p.Register(ScaffoldTaskName, NewScaffoldTask(ext, props).Execute)
	if err != nil {
		return err
	}
	scaffold.Group = Group
	scaffold.Description = "Generates the application sources into the customizable sources path."
	scaffold.DependsOn(CompileTaskName)

	processClasses, err := p.Register(ProcessClassesTaskName, NewProcessClassesTask(ext, props).Execute)
	if err != nil {
		return err
	}
	processClasses.Group = Group
	processClasses.Description = "Generates persistence and JSON schemas of the compiled models."

	compileFlowgen, err := p.Register(CompileFlowgenTaskName, NewCompileTask(ext, props).Execute)
	if err != nil {
		return err
	}
	compileFlowgen.Group = Group
	compileFlowgen.Description = "Compiles the generated sources."

	processClasses.DependsOn(CompileFlowgenTaskName)
	compileFlowgen.FinalizedBy(ProcessClassesTaskName)

	if ext.AutoBuild {
		compile.FinalizedBy(GenerateModelTaskName)
		generateModel.FinalizedBy(CompileFlowgenTaskName)
		classes.MustRunAfter(CompileFlowgenTaskName)
	}
	return nil
}
