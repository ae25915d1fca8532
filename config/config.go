// Package config holds the build configuration of a flowgen project, read
// from flowgen.yaml and overridden by command line flags.
package config

import (
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/vine-io/flowgen/api"
	"gopkg.in/yaml.v2"
)

const (
	// FileName is the configuration file looked up in the project directory.
	FileName = "flowgen.yaml"

	DefaultModule            = "flowgen.local/app"
	DefaultBuildDir          = "build"
	DefaultSourcesDir        = "generated/sources/flowgen"
	DefaultResourcesDir      = "generated/resources/flowgen"
	DefaultClassesDir        = "classes"
	DefaultCustomizablePath  = "src"
	DefaultResourceDirectory = "resources"
	DefaultSchemaVersion     = "http://json-schema.org/draft-07/schema#"
)

// Extension is the project level configuration.
type Extension struct {
	ProjectDir string `yaml:"projectDir"`
	BuildDir   string `yaml:"buildDir"`
	// Module is the import path prefix of generated packages.
	Module       string            `yaml:"module"`
	ResourceDirs []string          `yaml:"resourceDirs"`
	SourceDirs   []string          `yaml:"sourceDirs"`
	Properties   map[string]string `yaml:"properties"`

	OutputDirectory    string `yaml:"outputDirectory"`
	GeneratedSources   string `yaml:"generatedSources"`
	GeneratedResources string `yaml:"generatedResources"`

	Persistence         bool `yaml:"persistence"`
	GenerateRules       bool `yaml:"generateRules"`
	GenerateProcesses   bool `yaml:"generateProcesses"`
	GenerateDecisions   bool `yaml:"generateDecisions"`
	GeneratePredictions bool `yaml:"generatePredictions"`
	AutoBuild           bool `yaml:"autoBuild"`

	GenerateModel  GenerateModel  `yaml:"generateModel"`
	ProcessClasses ProcessClasses `yaml:"processClasses"`
}

// GenerateModel configures the model generation task.
type GenerateModel struct {
	CustomizableSourcesPath string `yaml:"customizableSourcesPath"`
	GeneratePartial         bool   `yaml:"generatePartial"`
	OnDemand                bool   `yaml:"onDemand"`
	KeepSources             bool   `yaml:"keepSources"`
	BuildOutputDirectory    string `yaml:"buildOutputDirectory"`
}

// ProcessClasses configures the persistence generation task.
type ProcessClasses struct {
	SchemaVersion string `yaml:"schemaVersion"`
}

// Default returns the configuration of a project rooted at projectDir.
// Every generation toggle is on.
func Default(projectDir string) *Extension {
	ext := &Extension{
		ProjectDir:          projectDir,
		Module:              DefaultModule,
		ResourceDirs:        []string{DefaultResourceDirectory},
		SourceDirs:          []string{},
		Properties:          map[string]string{},
		Persistence:         true,
		GenerateRules:       true,
		GenerateProcesses:   true,
		GenerateDecisions:   true,
		GeneratePredictions: true,
		AutoBuild:           true,
		ProcessClasses:      ProcessClasses{SchemaVersion: DefaultSchemaVersion},
	}
	return ext
}

// Complete fills the directories left empty from the project and build
// directories and makes every path absolute.
func (e *Extension) Complete() error {
	var err error
	if e.ProjectDir == "" {
		e.ProjectDir = "."
	}
	if e.ProjectDir, err = expand(e.ProjectDir, ""); err != nil {
		return err
	}
	if e.BuildDir == "" {
		e.BuildDir = DefaultBuildDir
	}
	if e.BuildDir, err = expand(e.BuildDir, e.ProjectDir); err != nil {
		return err
	}

	defaults := []struct {
		target *string
		value  string
		base   string
	}{
		{&e.OutputDirectory, DefaultClassesDir, e.BuildDir},
		{&e.GeneratedSources, DefaultSourcesDir, e.BuildDir},
		{&e.GeneratedResources, DefaultResourcesDir, e.BuildDir},
		{&e.GenerateModel.CustomizableSourcesPath, DefaultCustomizablePath, e.ProjectDir},
	}
	for _, d := range defaults {
		if *d.target == "" {
			*d.target = d.value
		}
		if *d.target, err = expand(*d.target, d.base); err != nil {
			return err
		}
	}
	if e.GenerateModel.BuildOutputDirectory == "" {
		e.GenerateModel.BuildOutputDirectory = e.BuildDir
	}
	if e.GenerateModel.BuildOutputDirectory, err = expand(e.GenerateModel.BuildOutputDirectory, e.ProjectDir); err != nil {
		return err
	}

	for i, dir := range e.ResourceDirs {
		if e.ResourceDirs[i], err = expand(dir, e.ProjectDir); err != nil {
			return err
		}
	}
	for i, dir := range e.SourceDirs {
		if e.SourceDirs[i], err = expand(dir, e.ProjectDir); err != nil {
			return err
		}
	}
	if e.Properties == nil {
		e.Properties = map[string]string{}
	}
	if e.ProcessClasses.SchemaVersion == "" {
		e.ProcessClasses.SchemaVersion = DefaultSchemaVersion
	}

	return nil
}

// Validate checks a completed configuration.
func (e *Extension) Validate() error {
	err := validation.ValidateStruct(e,
		validation.Field(&e.ProjectDir, validation.Required),
		validation.Field(&e.Module, validation.Required),
		validation.Field(&e.OutputDirectory, validation.Required),
		validation.Field(&e.GeneratedSources, validation.Required),
		validation.Field(&e.GeneratedResources, validation.Required),
		validation.Field(&e.ResourceDirs, validation.Each(validation.Required)),
	)
	if err != nil {
		return api.PreconditionFailed("invalid configuration: %v", err)
	}
	return nil
}

// Load reads path into the defaults of the project directory containing it.
// A missing file yields the defaults.
func Load(path string, opts ...Option) (*Extension, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrap(err, "expand config path")
	}

	ext := Default(filepath.Dir(path))
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(data, ext); err != nil {
			return nil, api.BadRequest("parse %s: %v", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "read %s", path)
	}

	for _, o := range opts {
		o(ext)
	}
	if err = ext.Complete(); err != nil {
		return nil, err
	}
	if err = ext.Validate(); err != nil {
		return nil, err
	}
	return ext, nil
}

func expand(p, base string) (string, error) {
	p, err := homedir.Expand(p)
	if err != nil {
		return "", errors.Wrapf(err, "expand %s", p)
	}
	if !filepath.IsAbs(p) && base != "" {
		p = filepath.Join(base, p)
	}
	return filepath.Abs(p)
}
