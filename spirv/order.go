package spirv

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// orderDeclarations sorts declarations so every id is defined before it is
// referenced. The order is deterministic for a given input.
func orderDeclarations(decls []Instruction) ([]Instruction, error) {
	defs := make(map[uint32]int, len(decls))

	for i, inst := range decls {
		if id := inst.ResultID(); id != 0 {
			defs[id] = i
		}
	}

	g := simple.NewDirectedGraph()

	for i := range decls {
		g.AddNode(simple.Node(i))
	}

	for j, inst := range decls {
		for _, ref := range inst.Refs() {
			i, ok := defs[ref]
			if !ok {
				continue
			}

			if i == j {
				return nil, &CyclicGraphError{Stage: "declarations"}
			}

			g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
		}
	}

	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		slices.SortFunc(nodes, func(x, y graph.Node) int {
			return int(x.ID() - y.ID())
		})
	})
	if err != nil {
		return nil, &CyclicGraphError{Stage: "declarations"}
	}

	res := make([]Instruction, len(sorted))
	for i, n := range sorted {
		res[i] = decls[n.ID()]
	}

	return res, nil
}
