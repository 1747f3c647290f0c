package ir

import (
	"cmp"
	"iter"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"tlog.app/go/errors"
)

// NodeID addresses a node in its Graph.
type NodeID uint32

// Edge feeds the result of Source into argument slot Position of Sink.
type Edge struct {
	Source   NodeID
	Sink     NodeID
	Position uint32
}

// Graph is an arena of nodes connected by position-weighted edges.
// The zero value is an empty graph ready to use.
type Graph struct {
	nodes []Node
	args  [][]Edge // incoming edges per sink, sorted by position
	uses  []int    // outgoing edge count per source
}

func NewGraph() *Graph {
	return &Graph{}
}

// AddNode appends n and returns its id.
func (g *Graph) AddNode(n Node) NodeID {
	id := NodeID(len(g.nodes))

	g.nodes = append(g.nodes, n)
	g.args = append(g.args, nil)
	g.uses = append(g.uses, 0)

	return id
}

// AddEdge connects source to argument slot position of sink.
// Positions at one sink must be unique.
func (g *Graph) AddEdge(source, sink NodeID, position uint32) error {
	if int(source) >= len(g.nodes) {
		return errors.New("edge source %d: no such node", source)
	}
	if int(sink) >= len(g.nodes) {
		return errors.New("edge sink %d: no such node", sink)
	}

	args := g.args[sink]

	i, found := slices.BinarySearchFunc(args, position, func(e Edge, p uint32) int {
		return cmp.Compare(e.Position, p)
	})
	if found {
		return errors.New("node %d (%v): argument %d connected twice", sink, g.nodes[sink], position)
	}

	g.args[sink] = slices.Insert(args, i, Edge{Source: source, Sink: sink, Position: position})
	g.uses[source]++

	return nil
}

// Add appends n with args connected at positions 0, 1, ...
// It panics if an argument is not a node of g.
func (g *Graph) Add(n Node, args ...NodeID) NodeID {
	id := g.AddNode(n)

	for i, a := range args {
		if err := g.AddEdge(a, id, uint32(i)); err != nil {
			panic(err)
		}
	}

	return id
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// Arguments returns the sources feeding id in ascending position order.
func (g *Graph) Arguments(id NodeID) []NodeID {
	args := g.args[id]
	res := make([]NodeID, len(args))

	for i, e := range args {
		res[i] = e.Source
	}

	return res
}

// Edges returns all edges grouped by sink.
func (g *Graph) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, args := range g.args {
			for _, e := range args {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Outputs yields every Output node with no outgoing edges, in id order.
// The sequence may be iterated any number of times.
func (g *Graph) Outputs() iter.Seq[NodeID] {
	return g.sinks(func(n Node) bool {
		_, ok := n.(Output)
		return ok
	})
}

// Returns yields every Return node with no outgoing edges, in id order.
func (g *Graph) Returns() iter.Seq[NodeID] {
	return g.sinks(func(n Node) bool {
		_, ok := n.(Return)
		return ok
	})
}

func (g *Graph) sinks(match func(Node) bool) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for i, n := range g.nodes {
			if g.uses[i] != 0 || !match(n) {
				continue
			}
			if !yield(NodeID(i)) {
				return
			}
		}
	}
}

// HasCycle reports whether the graph has a directed cycle.
func (g *Graph) HasCycle() bool {
	dg := simple.NewDirectedGraph()

	for i := range g.nodes {
		dg.AddNode(simple.Node(i))
	}

	for e := range g.Edges() {
		if e.Source == e.Sink {
			return true
		}

		dg.SetEdge(dg.NewEdge(simple.Node(e.Source), simple.Node(e.Sink)))
	}

	_, err := topo.Sort(dg)

	return err != nil
}
