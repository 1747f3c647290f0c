package ir

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphArgumentsOrdered(t *testing.T) {
	g := NewGraph()

	a := g.AddNode(Constant{Value: FloatValue(1)})
	b := g.AddNode(Constant{Value: FloatValue(2)})
	c := g.AddNode(Constant{Value: FloatValue(3)})
	sum := g.AddNode(Arithmetic{Op: Subtract})

	require.NoError(t, g.AddEdge(c, sum, 7))
	require.NoError(t, g.AddEdge(a, sum, 0))
	require.NoError(t, g.AddEdge(b, sum, 3))

	assert.Equal(t, []NodeID{a, b, c}, g.Arguments(sum))
	assert.Empty(t, g.Arguments(a))
}

func TestGraphDuplicatePosition(t *testing.T) {
	g := NewGraph()

	a := g.AddNode(Constant{Value: FloatValue(1)})
	b := g.AddNode(Constant{Value: FloatValue(2)})
	sum := g.AddNode(Arithmetic{Op: Add})

	require.NoError(t, g.AddEdge(a, sum, 0))
	assert.Error(t, g.AddEdge(b, sum, 0))
	assert.Error(t, g.AddEdge(b, NodeID(100), 1))
	assert.Error(t, g.AddEdge(NodeID(100), sum, 1))

	assert.Equal(t, []NodeID{a}, g.Arguments(sum))
}

func TestGraphOutputs(t *testing.T) {
	g := NewGraph()

	in := g.AddNode(Input{Location: 0, Type: Float, Name: "x"})
	o1 := g.Add(Output{Location: 0, Type: Float, Name: "a"}, in)
	o2 := g.Add(Output{Location: 1, Type: Float, Name: "b"}, in)

	// an Output used as an argument is not a graph output
	used := g.Add(Output{Location: 2, Type: Float, Name: "c"}, in)
	g.Add(Arithmetic{Op: Add}, used, in)

	outs := slices.Collect(g.Outputs())
	assert.Equal(t, []NodeID{o1, o2}, outs)

	// restartable
	assert.Equal(t, outs, slices.Collect(g.Outputs()))

	// early stop
	for id := range g.Outputs() {
		assert.Equal(t, o1, id)
		break
	}
}

func TestGraphReturns(t *testing.T) {
	g := NewGraph()

	p := g.AddNode(Parameter{Location: 0, Type: Float})
	r := g.Add(Return{}, p)

	assert.Equal(t, []NodeID{r}, slices.Collect(g.Returns()))
	assert.Empty(t, slices.Collect(g.Outputs()))
}

func TestGraphHasCycle(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		g := NewGraph()
		a := g.AddNode(Constant{Value: FloatValue(1)})
		b := g.Add(Math{Fun: MathSin}, a)
		g.Add(Output{Type: Float}, b)

		assert.False(t, g.HasCycle())
	})

	t.Run("self loop", func(t *testing.T) {
		g := NewGraph()
		a := g.AddNode(Arithmetic{Op: Add})
		require.NoError(t, g.AddEdge(a, a, 0))

		assert.True(t, g.HasCycle())
	})

	t.Run("long cycle", func(t *testing.T) {
		g := NewGraph()
		a := g.AddNode(Math{Fun: MathSin})
		b := g.Add(Math{Fun: MathCos}, a)
		c := g.Add(Math{Fun: MathTan}, b)
		require.NoError(t, g.AddEdge(c, a, 0))

		assert.True(t, g.HasCycle())
	})

	t.Run("diamond", func(t *testing.T) {
		g := NewGraph()
		a := g.AddNode(Input{Type: Float})
		b := g.Add(Math{Fun: MathSin}, a)
		c := g.Add(Math{Fun: MathCos}, a)
		g.Add(Arithmetic{Op: Add}, b, c)

		assert.False(t, g.HasCycle())
	})
}

func TestGraphZeroValue(t *testing.T) {
	var g Graph

	id := g.AddNode(Constant{Value: BoolValue(true)})
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, Constant{Value: BoolValue(true)}, g.Node(id))
}

func TestNodeNames(t *testing.T) {
	assert.Equal(t, "Multiply", Arithmetic{Op: Multiply}.String())
	assert.Equal(t, "Smoothstep", Math{Fun: MathSmoothstep}.String())
	assert.Equal(t, "GreaterEqual", Compare{Op: GreaterEqual}.String())
	assert.Equal(t, "Input(position)", Input{Name: "position"}.String())
	assert.Equal(t, "Extract(5)", Extract{Index: 5}.String())
	assert.Equal(t, "Construct(vec4)", Construct{Type: Vec(4, Float)}.String())

	for _, n := range []Node{
		Arithmetic{Op: Modulus}, Compare{Op: NotEqual}, Logical{Op: Not},
		Math{Fun: MathStep}, Math{Fun: MathDot}, Negate{}, Select{}, Sample{}, Return{},
	} {
		got, ok := ParseOp(n.String())
		if assert.True(t, ok, n.String()) {
			assert.Equal(t, n, got)
		}
	}

	_, ok := ParseOp("Frobnicate")
	assert.False(t, ok)
}

func TestValueTypes(t *testing.T) {
	assert.Equal(t, Vec(3, Float), Vec3f(0.3, -0.5, 0.2).Type())
	assert.Equal(t, Vec(2, Uint), Vec2u(1, 2).Type())
	assert.Equal(t, Mat(4, Vec(4, Float)), Identity(4).Type())
	assert.Equal(t, Mat(2, Vec(2, Int)), MatrixValue{Vec2i(1, 0), Vec2i(0, 1)}.Type())

	assert.Nil(t, VectorValue{FloatValue(1)}.Type())
	assert.Nil(t, VectorValue{FloatValue(1), IntValue(2)}.Type())
	assert.Nil(t, MatrixValue{Vec2f(1, 0), Vec3f(0, 1, 0)}.Type())

	assert.Equal(t, "vector(float, int)", Describe(VectorValue{FloatValue(1), IntValue(2)}))
	assert.Equal(t, "imat2", Describe(MatrixValue{Vec2i(1, 0), Vec2i(0, 1)}))
}
