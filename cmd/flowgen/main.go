// Command flowgen generates, compiles and post-processes the application of
// a project holding process, case, decision, rule and prediction resources.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vine-io/flowgen/config"
	"github.com/vine-io/flowgen/plugin"
	"github.com/vine-io/flowgen/sysprop"
	log "github.com/vine-io/vine/lib/logger"
)

type flags struct {
	configPath string
	projectDir string
	module     string
	buildDir   string
	outputDir  string
	properties map[string]string

	autoBuild   bool
	persistence bool
	partial     bool
	onDemand    bool
	keepSources bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "flowgen",
		Short:         "Build time generator for process, decision and rule resources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f.bind(cmd)

	commands := []struct {
		use, short, task string
	}{
		{"generate", "Generate and compile the application model", plugin.GenerateModelTaskName},
		{"scaffold", "Generate the application sources into the customizable sources path", plugin.ScaffoldTaskName},
		{"compile", "Compile the generated and project sources", plugin.CompileFlowgenTaskName},
		{"process-classes", "Generate persistence and JSON schemas of compiled models", plugin.ProcessClassesTaskName},
		{"build", "Run the project build", plugin.ClassesTaskName},
	}
	for _, c := range commands {
		task := c.task
		cmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer cancel()
				p, _, err := f.project(cmd)
				if err != nil {
					return err
				}
				return p.Run(ctx, task)
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Regenerate the application whenever a resource changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			p, ext, err := f.project(cmd)
			if err != nil {
				return err
			}
			log.Infof("watching %v", ext.ResourceDirs)
			return plugin.Watch(ctx, p, plugin.GenerateModelTaskName, ext.ResourceDirs...)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tasks",
		Short: "List the project tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := f.project(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range p.Tasks() {
				t, _ := p.Task(name)
				fmt.Fprintf(out, "%-24s %s\n", name, t.Description)
			}
			return nil
		},
	})

	return cmd
}

func (f *flags) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "configuration file (default <project-dir>/"+config.FileName+")")
	pf.StringVarP(&f.projectDir, "project-dir", "p", ".", "project directory")
	pf.StringVar(&f.module, "module", "", "import path prefix of generated packages")
	pf.StringVar(&f.buildDir, "build-dir", "", "build directory")
	pf.StringVarP(&f.outputDir, "output", "o", "", "class output directory")
	pf.StringToStringVarP(&f.properties, "property", "D", nil, "generation property key=value")
	pf.BoolVar(&f.autoBuild, "auto-build", true, "chain generation and compilation to the compile task")
	pf.BoolVar(&f.persistence, "persistence", true, "generate persistence for models")
	pf.BoolVar(&f.partial, "partial", false, "generate components without the application registry")
	pf.BoolVar(&f.onDemand, "on-demand", false, "skip model generation, scaffold on demand")
	pf.BoolVar(&f.keepSources, "keep-sources", false, "keep rule sources in the output directory")
}

// project loads the configuration, applies the flags set on the command
// line over it and builds the project task graph.
func (f *flags) project(cmd *cobra.Command) (*plugin.Project, *config.Extension, error) {
	path := f.configPath
	if path == "" {
		path = filepath.Join(f.projectDir, config.FileName)
	}

	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	opts := make([]config.Option, 0)
	if changed("project-dir") {
		opts = append(opts, config.WithProjectDir(f.projectDir))
	}
	if changed("module") {
		opts = append(opts, config.WithModule(f.module))
	}
	if changed("build-dir") {
		opts = append(opts, config.WithBuildDir(f.buildDir))
	}
	if changed("output") {
		opts = append(opts, config.WithOutputDirectory(f.outputDir))
	}
	for k, v := range f.properties {
		opts = append(opts, config.WithProperty(k, v))
	}
	if changed("auto-build") {
		opts = append(opts, config.WithAutoBuild(f.autoBuild))
	}
	if changed("persistence") {
		opts = append(opts, config.WithPersistence(f.persistence))
	}
	if changed("partial") {
		opts = append(opts, config.WithGeneratePartial(f.partial))
	}
	if changed("on-demand") {
		opts = append(opts, config.WithOnDemand(f.onDemand))
	}
	if changed("keep-sources") {
		opts = append(opts, config.WithKeepSources(f.keepSources))
	}

	ext, err := config.Load(path, opts...)
	if err != nil {
		return nil, nil, err
	}
	p, err := plugin.NewGoProject(filepath.Base(ext.ProjectDir), ext, sysprop.Default())
	if err != nil {
		return nil, nil, err
	}
	return p, ext, nil
}
