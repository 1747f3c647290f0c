// Package graphfile reads shader graphs described in YAML.
//
// A document has a main graph and named functions:
//
//	stage: fragment
//	main:
//	  - {id: uv, op: Input, location: 0, type: vec2}
//	  - {id: tex, op: Uniform, location: 0, type: sampler2D}
//	  - {id: c, op: Sample, args: [tex, uv]}
//	  - {op: Output, location: 0, type: vec4, args: [c]}
//	functions:
//	  - name: half
//	    nodes:
//	      - {id: x, op: Parameter, location: 0, type: float}
//	      - {id: h, op: Constant, type: float, value: 0.5}
//	      - {op: Return, args: [{op: Multiply, args: [x, h]}]}
//
// Arguments name other nodes of the same graph by id, or are nodes written
// inline. Their order is the argument position.
package graphfile

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/gogpu/shadergraph/ir"
)

// File is a decoded graph document.
type File struct {
	// Stage is the shader stage the document asks for, if any.
	Stage string

	Module *ir.Module
}

type (
	yamlDocument struct {
		Stage     string         `yaml:"stage,omitempty"`
		Main      []yaml.Node    `yaml:"main"`
		Functions []yamlFunction `yaml:"functions,omitempty"`
	}

	yamlFunction struct {
		Name  string      `yaml:"name"`
		Nodes []yaml.Node `yaml:"nodes"`
	}

	// yamlNode uses yaml.Node values, not pointers; yaml.v3 leaves Kind
	// zero when decoding into *yaml.Node struct fields.
	yamlNode struct {
		ID       string      `yaml:"id,omitempty"`
		Op       string      `yaml:"op"`
		Args     []yaml.Node `yaml:"args,omitempty"`
		Type     string      `yaml:"type,omitempty"`
		Location uint32      `yaml:"location,omitempty"`
		Name     string      `yaml:"name,omitempty"`
		Index    uint32      `yaml:"index,omitempty"`
		Value    yaml.Node   `yaml:"value,omitempty"`
		Function string      `yaml:"function,omitempty"`
		Cond     string      `yaml:"cond,omitempty"`
		Body     string      `yaml:"body,omitempty"`
	}
)

// Read reads and decodes the document at path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", path)
	}

	return f, nil
}

// Parse decodes a document.
func Parse(data []byte) (*File, error) {
	var doc yamlDocument

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "yaml")
	}

	if len(doc.Main) == 0 && len(doc.Functions) == 0 {
		return nil, errors.New("empty document")
	}

	m := ir.NewModule(ir.NewGraph())
	refs := make(map[string]ir.FunctionRef, len(doc.Functions))

	for _, f := range doc.Functions {
		if f.Name == "" {
			return nil, errors.New("function without name")
		}

		if _, ok := refs[f.Name]; ok {
			return nil, errors.New("duplicate function %q", f.Name)
		}

		refs[f.Name] = m.AddFunction(f.Name, ir.NewGraph())
	}

	if err := decodeGraph(m.Main, doc.Main, refs); err != nil {
		return nil, errors.Wrap(err, "main")
	}

	for i, f := range doc.Functions {
		if err := decodeGraph(m.Functions[i].Graph, f.Nodes, refs); err != nil {
			return nil, errors.Wrap(err, "function %v", f.Name)
		}
	}

	verrs, err := ir.Validate(m)
	if err != nil {
		return nil, errors.Wrap(err, "validate")
	}

	if len(verrs) != 0 {
		return nil, &InvalidError{Errors: verrs}
	}

	return &File{Stage: doc.Stage, Module: m}, nil
}

// InvalidError reports a document that decoded into a structurally
// invalid module.
type InvalidError struct {
	Errors []ir.ValidationError
}

func (e *InvalidError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid graph: " + e.Errors[0].Error()
	}

	return fmt.Sprintf("invalid graph: %v (and %d more)", e.Errors[0], len(e.Errors)-1)
}

// decoder builds one graph.
type decoder struct {
	g    *ir.Graph
	refs map[string]ir.FunctionRef
	ids  map[string]ir.NodeID

	// nodes whose arguments are resolved once every id is known
	pending []pendingArgs
}

type pendingArgs struct {
	id   ir.NodeID
	args []yaml.Node
}

func decodeGraph(g *ir.Graph, nodes []yaml.Node, refs map[string]ir.FunctionRef) error {
	d := &decoder{
		g:    g,
		refs: refs,
		ids:  make(map[string]ir.NodeID),
	}

	for i := range nodes {
		if _, err := d.node(&nodes[i]); err != nil {
			return err
		}
	}

	// inline arguments append to pending while it is drained
	for i := 0; i < len(d.pending); i++ {
		p := d.pending[i]

		if err := d.args(p.id, p.args); err != nil {
			return err
		}
	}

	return nil
}

// node adds the node described by y and returns its id.
func (d *decoder) node(y *yaml.Node) (ir.NodeID, error) {
	var yn yamlNode

	if err := y.Decode(&yn); err != nil {
		return 0, errors.Wrap(err, "line %d", y.Line)
	}

	n, err := d.build(&yn)
	if err != nil {
		return 0, errors.Wrap(err, "line %d: %v", y.Line, yn.Op)
	}

	id := d.g.AddNode(n)

	if yn.ID != "" {
		if _, ok := d.ids[yn.ID]; ok {
			return 0, errors.New("line %d: duplicate id %q", y.Line, yn.ID)
		}

		d.ids[yn.ID] = id
	}

	d.pending = append(d.pending, pendingArgs{id: id, args: yn.Args})

	return id, nil
}

func (d *decoder) args(sink ir.NodeID, args []yaml.Node) error {
	for pos := range args {
		a := &args[pos]

		var src ir.NodeID

		switch a.Kind {
		case yaml.ScalarNode:
			id, ok := d.ids[a.Value]
			if !ok {
				return errors.New("line %d: unknown node %q", a.Line, a.Value)
			}

			src = id
		case yaml.MappingNode:
			id, err := d.node(a)
			if err != nil {
				return err
			}

			src = id
		default:
			return errors.New("line %d: argument must be a node id or a node", a.Line)
		}

		if err := d.g.AddEdge(src, sink, uint32(pos)); err != nil {
			return errors.Wrap(err, "line %d", a.Line)
		}
	}

	return nil
}

//nolint:gocyclo,cyclop // one case per op
func (d *decoder) build(yn *yamlNode) (ir.Node, error) {
	typ := func() (*ir.Type, error) {
		if yn.Type == "" {
			return nil, errors.New("type required")
		}

		return ir.ParseType(yn.Type)
	}

	fn := func(name string) (ir.FunctionRef, error) {
		ref, ok := d.refs[name]
		if !ok {
			return 0, errors.New("unknown function %q", name)
		}

		return ref, nil
	}

	switch yn.Op {
	case "Input", "Uniform", "Output":
		t, err := typ()
		if err != nil {
			return nil, err
		}

		switch yn.Op {
		case "Input":
			return ir.Input{Location: yn.Location, Type: t, Name: yn.Name}, nil
		case "Uniform":
			return ir.Uniform{Location: yn.Location, Type: t, Name: yn.Name}, nil
		}

		return ir.Output{Location: yn.Location, Type: t, Name: yn.Name}, nil
	case "Parameter":
		t, err := typ()
		if err != nil {
			return nil, err
		}

		return ir.Parameter{Location: yn.Location, Type: t}, nil
	case "Constant":
		t, err := typ()
		if err != nil {
			return nil, err
		}

		v, err := Value(t, &yn.Value)
		if err != nil {
			return nil, errors.Wrap(err, "value")
		}

		return ir.Constant{Value: v}, nil
	case "Construct":
		t, err := typ()
		if err != nil {
			return nil, err
		}

		return ir.Construct{Type: t}, nil
	case "Extract":
		return ir.Extract{Index: yn.Index}, nil
	case "Call":
		ref, err := fn(yn.Function)
		if err != nil {
			return nil, err
		}

		return ir.Call{Function: ref}, nil
	case "Loop":
		cond, err := fn(yn.Cond)
		if err != nil {
			return nil, errors.Wrap(err, "cond")
		}

		body, err := fn(yn.Body)
		if err != nil {
			return nil, errors.Wrap(err, "body")
		}

		return ir.Loop{Cond: cond, Body: body}, nil
	}

	if n, ok := ir.ParseOp(yn.Op); ok {
		return n, nil
	}

	return nil, errors.New("unknown op")
}

// Value decodes a constant of type t from y. Vectors are sequences of
// components and matrices sequences of columns.
func Value(t *ir.Type, y *yaml.Node) (ir.Value, error) {
	switch t.Kind() {
	case ir.KindBool, ir.KindInt, ir.KindFloat:
		if y.Kind != yaml.ScalarNode {
			return nil, errors.New("line %d: %v expects a scalar", y.Line, t)
		}

		return scalar(t, y.Value)
	case ir.KindVector, ir.KindMatrix:
		if y.Kind != yaml.SequenceNode || len(y.Content) != t.Count() {
			return nil, errors.New("line %d: %v expects %d elements", y.Line, t, t.Count())
		}

		if t.Kind() == ir.KindMatrix {
			m := make(ir.MatrixValue, t.Count())

			for i, c := range y.Content {
				v, err := Value(t.Elem(), c)
				if err != nil {
					return nil, err
				}

				m[i] = v.(ir.VectorValue)
			}

			return m, nil
		}

		v := make(ir.VectorValue, t.Count())

		for i, c := range y.Content {
			e, err := Value(t.Elem(), c)
			if err != nil {
				return nil, err
			}

			v[i] = e
		}

		return v, nil
	}

	return nil, errors.New("no constants of type %v", t)
}

func scalar(t *ir.Type, s string) (ir.Value, error) {
	switch t.Kind() {
	case ir.KindBool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Wrap(err, "bool")
		}

		return ir.BoolValue(v), nil
	case ir.KindInt:
		if t.Signed() {
			v, err := strconv.ParseInt(s, 0, 32)
			if err != nil {
				return nil, errors.Wrap(err, "int")
			}

			return ir.IntValue(v), nil
		}

		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, errors.Wrap(err, "uint")
		}

		return ir.UintValue(v), nil
	}

	bits := 32
	if t.IsDouble() {
		bits = 64
	}

	v, err := parseFloat(s, bits)
	if err != nil {
		return nil, errors.Wrap(err, "float")
	}

	if bits == 64 {
		return ir.DoubleValue(v), nil
	}

	return ir.FloatValue(v), nil
}

// parseFloat accepts YAML spellings of infinities and NaN besides the Go ones.
func parseFloat(s string, bits int) (float64, error) {
	switch s {
	case ".nan", ".NaN", ".NAN":
		s = "NaN"
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		s = "+Inf"
	case "-.inf", "-.Inf", "-.INF":
		s = "-Inf"
	}

	return strconv.ParseFloat(s, bits)
}
