package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"

	"github.com/gogpu/shadergraph"
	"github.com/gogpu/shadergraph/graphfile"
	"github.com/gogpu/shadergraph/internal/cache"
	"github.com/gogpu/shadergraph/spirv"
)

func newDisCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "dis <file>",
		Short: "Print a listing of a SPIR-V module",
		Long: `Print a listing of a SPIR-V module.

Files ending in .spv are read as binary modules. Anything else is compiled
as a graph document first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrap(err, "read")
			}

			var m *spirv.Module

			if filepath.Ext(path) == ".spv" {
				m, err = spirv.Parse(data)
			} else {
				var opts shadergraph.Options

				_, opts, err = f.load(cmd)
				if err != nil {
					return err
				}

				m, err = shadergraph.Compile(cmd.Context(), path, data, opts)
			}
			if err != nil {
				return errors.Wrap(err, "%v", path)
			}

			return spirv.Disassemble(cmd.OutOrStdout(), m)
		},
	}
}

func newHashCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <files...>",
		Short: "Print the cache key of graph documents",
		Long: `Print the cache key of graph documents.

The key covers the document bytes and the settings it compiles with, so it
changes with flags and the config file as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, err := f.load(cmd)
			if err != nil {
				return err
			}

			files, err := expand(args)
			if err != nil {
				return err
			}

			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrap(err, "read")
				}

				doc, err := graphfile.Parse(data)
				if err != nil {
					return errors.Wrap(err, "%v", path)
				}

				s, err := shadergraph.Settings(doc, opts)
				if err != nil {
					return errors.Wrap(err, "%v", path)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%v  %s\n", cache.KeyOf(data, s), path)
			}

			return nil
		},
	}
}

func newCacheCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Module cache commands",
	}

	open := func(cmd *cobra.Command) (*cache.Cache, error) {
		cfg, _, err := f.load(cmd)
		if err != nil {
			return nil, err
		}

		return openCache(cfg)
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}

			defer c.Close()

			st, err := c.Stats()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "entries: %d\nsize: %d bytes\nhits: %d\n", st.Entries, st.Size, st.Hits)

			return nil
		},
	}

	var olderThan time.Duration

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}

			defer c.Close()

			n, err := c.Prune(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d modules\n", n)

			return nil
		},
	}

	prune.Flags().DurationVar(&olderThan, "older-than", 0, "only remove modules cached longer ago than this")

	cmd.AddCommand(stats, prune)

	return cmd
}
