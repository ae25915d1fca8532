package config

// Option overrides one setting of an Extension before it is completed.
type Option func(e *Extension)

func NewExtension(projectDir string, opts ...Option) (*Extension, error) {
	ext := Default(projectDir)
	for _, o := range opts {
		o(ext)
	}
	if err := ext.Complete(); err != nil {
		return nil, err
	}
	if err := ext.Validate(); err != nil {
		return nil, err
	}
	return ext, nil
}

func WithProjectDir(dir string) Option {
	return func(e *Extension) {
		e.ProjectDir = dir
	}
}

func WithBuildDir(dir string) Option {
	return func(e *Extension) {
		e.BuildDir = dir
	}
}

func WithModule(module string) Option {
	return func(e *Extension) {
		e.Module = module
	}
}

func WithOutputDirectory(dir string) Option {
	return func(e *Extension) {
		e.OutputDirectory = dir
	}
}

func WithProperty(key, value string) Option {
	return func(e *Extension) {
		if e.Properties == nil {
			e.Properties = map[string]string{}
		}
		e.Properties[key] = value
	}
}

func WithAutoBuild(enabled bool) Option {
	return func(e *Extension) {
		e.AutoBuild = enabled
	}
}

func WithPersistence(enabled bool) Option {
	return func(e *Extension) {
		e.Persistence = enabled
	}
}

// WithGeneratePartial restricts generation to components.
func WithGeneratePartial(enabled bool) Option {
	return func(e *Extension) {
		e.GenerateModel.GeneratePartial = enabled
	}
}

func WithOnDemand(enabled bool) Option {
	return func(e *Extension) {
		e.GenerateModel.OnDemand = enabled
	}
}

func WithKeepSources(enabled bool) Option {
	return func(e *Extension) {
		e.GenerateModel.KeepSources = enabled
	}
}

func WithBuildOutputDirectory(dir string) Option {
	return func(e *Extension) {
		e.GenerateModel.BuildOutputDirectory = dir
	}
}

func WithSchemaVersion(version string) Option {
	return func(e *Extension) {
		e.ProcessClasses.SchemaVersion = version
	}
}
