// Command shaderc compiles shader graph documents to SPIR-V.
//
// Usage:
//
//	shaderc build [patterns...]    # Compile documents to .spv files
//	shaderc check <files...>       # Compile without writing output
//	shaderc dis <file>             # Print a listing of a .spv file or document
//	shaderc hash <files...>        # Print cache keys
//	shaderc cache stats|prune      # Inspect the module cache
//
// Examples:
//
//	shaderc build 'shaders/**/*.yaml' -o build/spv
//	shaderc build --stage compute --debug blur.yaml
//	shaderc dis build/spv/blur.spv
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shadergraph"
	"github.com/gogpu/shadergraph/config"
	"github.com/gogpu/shadergraph/spirv"
)

const version = "0.1.0-dev"

// flags shared by the compiling commands
type flags struct {
	config  string
	stage   string
	version string
	debug   bool
}

func main() {
	ctx := tlog.ContextWithSpan(context.Background(), tlog.Root())

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "shaderc",
		Short:         "shaderc compiles shader graphs to SPIR-V",
		Long:          `shaderc reads shader data-flow graphs described in YAML and compiles them to SPIR-V modules.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "config file (default: shaderc.yaml searched upwards)")
	pf.StringVar(&f.stage, "stage", "", "shader stage, overrides the document: vertex, fragment or compute")
	pf.StringVar(&f.version, "spirv-version", "", "target SPIR-V version (default 1.3)")
	pf.BoolVar(&f.debug, "debug", false, "emit debug names")

	root.AddCommand(
		newBuildCmd(&f),
		newCheckCmd(&f),
		newDisCmd(&f),
		newHashCmd(&f),
		newCacheCmd(&f),
	)

	return root
}

// load reads the config file and applies command line flags on top of it.
func (f *flags) load(cmd *cobra.Command) (*config.Config, shadergraph.Options, error) {
	var (
		cfg *config.Config
		err error
	)

	if f.config != "" {
		cfg, err = config.LoadFile(f.config)
	} else {
		var wd string

		wd, err = os.Getwd()
		if err == nil {
			cfg, _, err = config.Load(wd)
		}
	}
	if err != nil {
		return nil, shadergraph.Options{}, errors.Wrap(err, "config")
	}

	opts := shadergraph.DefaultOptions()

	opts.Settings, err = cfg.ToSettings()
	if err != nil {
		return nil, opts, errors.Wrap(err, "config")
	}

	if f.stage != "" {
		opts.Settings.Stage, err = spirv.ParseStage(f.stage)
		if err != nil {
			return nil, opts, err
		}

		opts.KeepStage = true
	}

	if f.version != "" {
		opts.Settings.Version, err = spirv.ParseVersion(f.version)
		if err != nil {
			return nil, opts, err
		}
	}

	if cmd.Flags().Changed("debug") {
		opts.Settings.Debug = f.debug
	}

	return cfg, opts, nil
}

// expand resolves doublestar patterns to a sorted list of files.
// Patterns without wildcards are kept as given so a missing file is
// reported when it is read.
func expand(patterns []string) ([]string, error) {
	var files []string

	for _, p := range patterns {
		if !hasMeta(p) {
			files = append(files, filepath.Clean(p))
			continue
		}

		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrap(err, "pattern %q", p)
		}

		files = append(files, matches...)
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

func hasMeta(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}

	return false
}

// inputs returns the files named by args, or by the config inputs when
// there are no args.
func inputs(cfg *config.Config, args []string) ([]string, error) {
	patterns := args

	if len(patterns) == 0 && cfg != nil {
		for _, p := range cfg.Inputs {
			if !filepath.IsAbs(p) {
				p = filepath.Join(cfg.Dir, p)
			}

			patterns = append(patterns, p)
		}
	}

	if len(patterns) == 0 {
		return nil, errors.New("no input files")
	}

	files, err := expand(patterns)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, errors.New("no files match %q", patterns)
	}

	return files, nil
}
