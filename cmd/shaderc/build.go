package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shadergraph"
	"github.com/gogpu/shadergraph/config"
	"github.com/gogpu/shadergraph/graphfile"
	"github.com/gogpu/shadergraph/internal/cache"
	"github.com/gogpu/shadergraph/spirv"
)

type builder struct {
	opts   shadergraph.Options
	cache  *cache.Cache
	outDir string

	// write compiled modules; false for check
	write bool

	mu  sync.Mutex
	out io.Writer
}

type result struct {
	path   string
	dst    string
	size   int
	cached bool
	err    error
}

func newBuildCmd(f *flags) *cobra.Command {
	var (
		output  string
		noCache bool
		jobs    int
	)

	cmd := &cobra.Command{
		Use:   "build [patterns...]",
		Short: "Compile graph documents to SPIR-V",
		Long: `Compile graph documents to SPIR-V.

Patterns may use ** to match directories recursively. Without patterns the
inputs listed in the config file are compiled. Each document is written next
to its source with the .spv extension, or into the output directory.

Examples:
  shaderc build 'shaders/**/*.yaml' -o build/spv
  shaderc build --no-cache lighting.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, err := f.load(cmd)
			if err != nil {
				return err
			}

			files, err := inputs(cfg, args)
			if err != nil {
				return err
			}

			b := &builder{
				opts:   opts,
				outDir: output,
				write:  true,
				out:    cmd.OutOrStdout(),
			}

			if b.outDir == "" {
				b.outDir = cfg.OutputDir()
			}

			if !noCache && cfg.CacheEnabled() {
				b.cache, err = openCache(cfg)
				if err != nil {
					return err
				}

				defer b.cache.Close()
			}

			if jobs == 0 && cfg != nil {
				jobs = cfg.Jobs
			}

			return b.run(cmd.Context(), files, jobs)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&output, "output", "o", "", "output directory (default: next to each input)")
	fl.BoolVar(&noCache, "no-cache", false, "do not read or write the module cache")
	fl.IntVarP(&jobs, "jobs", "j", 0, "files compiled in parallel (default: number of CPUs)")

	return cmd
}

func newCheckCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <files...>",
		Short: "Compile graph documents without writing output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, err := f.load(cmd)
			if err != nil {
				return err
			}

			files, err := expand(args)
			if err != nil {
				return err
			}

			b := &builder{
				opts: opts,
				out:  cmd.OutOrStdout(),
			}

			return b.run(cmd.Context(), files, 0)
		},
	}
}

func openCache(cfg *config.Config) (*cache.Cache, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}

	c, err := cache.Open(dir)
	if err != nil {
		return nil, errors.Wrap(err, "cache")
	}

	return c, nil
}

// run compiles files on at most jobs goroutines and reports every failure.
func (b *builder) run(ctx context.Context, files []string, jobs int) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build", "files", len(files), "jobs", jobs)
	defer tr.Finish("err", &err)

	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	jobs = min(jobs, len(files))

	results := make([]result, len(files))
	next := make(chan int)

	var wg sync.WaitGroup

	for range jobs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range next {
				results[i] = b.build(ctx, files[i])
			}
		}()
	}

	for i := range files {
		next <- i
	}

	close(next)
	wg.Wait()

	failed, cached := 0, 0

	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			b.printf("%s: %v\n", r.path, r.err)
		case r.cached:
			cached++
		}
	}

	tr.Printw("done", "files", len(files), "failed", failed, "cached", cached)

	if failed != 0 {
		return errors.New("%d of %d files failed", failed, len(files))
	}

	return nil
}

func (b *builder) build(ctx context.Context, path string) (r result) {
	r.path = path

	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "file", "path", path)
	defer tr.Finish("err", &r.err)

	data, err := os.ReadFile(path)
	if err != nil {
		r.err = errors.Wrap(err, "read")
		return r
	}

	f, err := graphfile.Parse(data)
	if err != nil {
		r.err = errors.Wrap(err, "parse")
		return r
	}

	s, err := shadergraph.Settings(f, b.opts)
	if err != nil {
		r.err = err
		return r
	}

	key := cache.KeyOf(data, s)

	var obj []byte

	if b.cache != nil {
		obj, r.cached, err = b.cache.Get(key)
		if err != nil {
			tr.Printw("cache read failed", "key", key.String(), "err", err)
		}
	}

	if !r.cached {
		s.Trace = tr

		m, err := spirv.CompileModule(f.Module, s)
		if err != nil {
			r.err = errors.Wrap(err, "compile")
			return r
		}

		obj = m.Bytes()

		if b.cache != nil {
			if err := b.cache.Put(key, obj); err != nil {
				tr.Printw("cache write failed", "key", key.String(), "err", err)
			}
		}
	}

	r.size = len(obj)

	tr.Printw("compiled", "size", r.size, "key", key.String(), "cached", r.cached)

	if !b.write {
		b.printf("%s: ok (%d bytes)\n", path, r.size)
		return r
	}

	r.dst = b.outputPath(path)

	if err := os.MkdirAll(filepath.Dir(r.dst), 0o755); err != nil {
		r.err = errors.Wrap(err, "create output dir")
		return r
	}

	if err := os.WriteFile(r.dst, obj, 0o644); err != nil {
		r.err = errors.Wrap(err, "write")
		return r
	}

	b.printf("%s -> %s (%d bytes)\n", path, r.dst, r.size)

	return r
}

func (b *builder) outputPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".spv"

	if b.outDir == "" {
		return filepath.Join(filepath.Dir(path), name)
	}

	return filepath.Join(b.outDir, name)
}

func (b *builder) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fmt.Fprintf(b.out, format, args...)
}
