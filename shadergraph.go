// Package shadergraph compiles shader data-flow graphs to SPIR-V.
//
// Graphs are built in Go with the ir package or read from YAML documents
// with the graphfile package. The spirv package lowers them to a module.
//
// Example usage:
//
//	g := ir.NewGraph()
//	color := g.Add(ir.Input{Location: 0, Type: ir.Vec(4, ir.Float)})
//	g.Add(ir.Output{Location: 0, Type: ir.Vec(4, ir.Float)}, color)
//
//	m, err := spirv.CompileGraph(g, spirv.DefaultSettings())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	os.WriteFile("shader.spv", m.Bytes(), 0o644)
//
// CompileFile does the same for a graph document:
//
//	obj, err := shadergraph.CompileFile(ctx, "shader.yaml", shadergraph.DefaultOptions())
package shadergraph

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shadergraph/graphfile"
	"github.com/gogpu/shadergraph/spirv"
)

// Options configures compilation of graph documents.
type Options struct {
	Settings spirv.Settings

	// KeepStage ignores the stage named by the document and uses
	// Settings.Stage.
	KeepStage bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Settings: spirv.DefaultSettings(),
	}
}

// CompileFile compiles the graph document at path to a SPIR-V binary.
func CompileFile(ctx context.Context, path string, opts Options) (obj []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(data), "name", path)

	m, err := Compile(ctx, path, data, opts)
	if err != nil {
		return nil, err
	}

	return m.Bytes(), nil
}

// Compile compiles a graph document.
//
// The pipeline is:
//  1. Decode the YAML document to an ir.Module
//  2. Validate its structure
//  3. Lower it to SPIR-V
func Compile(ctx context.Context, name string, data []byte, opts Options) (m *spirv.Module, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "compile graph", "name", name)
	defer tr.Finish("err", &err)

	f, err := graphfile.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	s, err := Settings(f, opts)
	if err != nil {
		return nil, err
	}

	s.Trace = tr

	tr.Printw("graph", "nodes", f.Module.Main.Len(), "functions", len(f.Module.Functions), "stage", s.Stage)

	m, err = spirv.CompileModule(f.Module, s)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	tr.Printw("module", "bound", m.Bound, "declarations", len(m.Declarations), "functions", len(m.Functions))

	return m, nil
}

// Settings returns the settings a document is compiled with.
func Settings(f *graphfile.File, opts Options) (spirv.Settings, error) {
	s := opts.Settings

	if f.Stage == "" || opts.KeepStage {
		return s, nil
	}

	stage, err := spirv.ParseStage(f.Stage)
	if err != nil {
		return s, errors.Wrap(err, "document stage")
	}

	s.Stage = stage

	return s, nil
}
