// Package ir defines the shader data-flow graph compiled by package spirv.
//
// The IR is deliberately small:
//   - Types: interned, structurally compared type descriptors
//   - Values: typed constant payloads carried by Constant nodes
//   - Graph: an arena of operation nodes connected by position-weighted edges
//   - Module: one main graph plus an ordered list of named function graphs
//
// # Graphs
//
// Every node carries only static operands (locations, type tags, literal
// values). Dynamic operands arrive over edges: an edge (source, sink, position)
// feeds the result of source into argument slot position of sink. Arguments of
// a sink are always replayed in ascending position order.
//
//	g := ir.NewGraph()
//	pos := g.AddNode(ir.Input{Location: 0, Type: ir.Vec(3, ir.Float), Name: "position"})
//	n := g.Add(ir.Math{Fun: ir.MathNormalize}, pos)
//	g.Add(ir.Output{Location: 0, Type: ir.Vec(3, ir.Float), Name: "normal"}, n)
//
// # Types
//
// Type descriptors are interned in a process-wide arena, so two descriptors
// with the same shape are the same pointer and may be compared with ==.
package ir
