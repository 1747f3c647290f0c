package ir

import "strconv"

// Node is an operation in a Graph. Nodes carry only static operands;
// dynamic operands arrive over edges.
type Node interface {
	// String is the display name used in diagnostics.
	String() string
	node()
}

// Input reads a stage input variable. Incoming edges are ignored.
type Input struct {
	Location uint32
	Type     *Type
	Name     string
}

// Uniform reads a member of the uniform block, or a sampler binding.
// Incoming edges are ignored.
type Uniform struct {
	Location uint32
	Type     *Type
	Name     string
}

// Output writes its single argument to a stage output variable.
type Output struct {
	Location uint32
	Type     *Type
	Name     string
}

// Constant produces Value.
type Constant struct {
	Value Value
}

// Construct builds a vector of Type from one scalar argument per component.
type Construct struct {
	Type *Type
}

// Extract reads component Index of its vector argument.
type Extract struct {
	Index uint32
}

// Arithmetic folds its arguments left to right with Op.
type Arithmetic struct {
	Op ArithmeticOp
}

// Compare compares its two arguments componentwise.
type Compare struct {
	Op CompareOp
}

// Logical combines boolean arguments.
type Logical struct {
	Op LogicalOp
}

// Negate negates its numeric argument.
type Negate struct{}

// Select picks its second argument where the first is true, else the third.
type Select struct{}

// Math applies a built-in function.
type Math struct {
	Fun MathFunction
}

// Sample samples its sampler argument at the coordinate argument.
type Sample struct{}

// Call calls a function of the enclosing Module.
type Call struct {
	Function FunctionRef
}

// Parameter is a function parameter. Parameters are ordered by Location.
type Parameter struct {
	Location uint32
	Type     *Type
}

// Return makes its argument the result of the enclosing function.
type Return struct{}

// Loop runs Body while Cond holds, starting from its single argument.
// Both functions take the loop state; Cond returns bool, Body the next state.
type Loop struct {
	Cond FunctionRef
	Body FunctionRef
}

func (Input) node()      {}
func (Uniform) node()    {}
func (Output) node()     {}
func (Constant) node()   {}
func (Construct) node()  {}
func (Extract) node()    {}
func (Arithmetic) node() {}
func (Compare) node()    {}
func (Logical) node()    {}
func (Negate) node()     {}
func (Select) node()     {}
func (Math) node()       {}
func (Sample) node()     {}
func (Call) node()       {}
func (Parameter) node()  {}
func (Return) node()     {}
func (Loop) node()       {}

func (n Input) String() string   { return "Input(" + n.Name + ")" }
func (n Uniform) String() string { return "Uniform(" + n.Name + ")" }
func (n Output) String() string  { return "Output(" + n.Name + ")" }

func (n Constant) String() string { return "Constant" }

func (n Construct) String() string { return "Construct(" + n.Type.String() + ")" }

func (n Extract) String() string { return "Extract(" + strconv.Itoa(int(n.Index)) + ")" }

func (n Arithmetic) String() string { return n.Op.String() }
func (n Compare) String() string    { return n.Op.String() }
func (n Logical) String() string    { return n.Op.String() }
func (n Math) String() string       { return n.Fun.String() }

func (Negate) String() string { return "Negate" }
func (Select) String() string { return "Select" }
func (Sample) String() string { return "Sample" }
func (Return) String() string { return "Return" }

func (n Call) String() string { return "Call(" + strconv.Itoa(int(n.Function)) + ")" }

func (n Parameter) String() string { return "Parameter(" + strconv.Itoa(int(n.Location)) + ")" }

func (n Loop) String() string {
	return "Loop(" + strconv.Itoa(int(n.Cond)) + ", " + strconv.Itoa(int(n.Body)) + ")"
}

// ArithmeticOp is a binary arithmetic operator.
type ArithmeticOp uint8

const (
	Add ArithmeticOp = iota
	Subtract
	Multiply
	Divide
	Modulus
)

// CompareOp is a comparison operator.
type CompareOp uint8

const (
	Less CompareOp = iota
	LessEqual
	Greater
	GreaterEqual
	Equal
	NotEqual
)

// LogicalOp is a boolean operator.
type LogicalOp uint8

const (
	And LogicalOp = iota
	Or
	Not
)

// MathFunction is a built-in function.
type MathFunction uint8

const (
	MathDot MathFunction = iota
	MathCross
	MathNormalize
	MathLength
	MathDistance
	MathReflect
	MathRefract
	MathFloor
	MathCeil
	MathRound
	MathSin
	MathCos
	MathTan
	MathPow
	MathMin
	MathMax
	MathClamp
	MathMix
	MathSqrt
	MathLog
	MathAbs
	MathSmoothstep
	MathInverse
	MathStep
)

var (
	arithmeticNames = [...]string{"Add", "Subtract", "Multiply", "Divide", "Modulus"}
	compareNames    = [...]string{"Less", "LessEqual", "Greater", "GreaterEqual", "Equal", "NotEqual"}
	logicalNames    = [...]string{"And", "Or", "Not"}

	mathNames = [...]string{
		"Dot", "Cross", "Normalize", "Length", "Distance", "Reflect", "Refract",
		"Floor", "Ceil", "Round", "Sin", "Cos", "Tan", "Pow", "Min", "Max",
		"Clamp", "Mix", "Sqrt", "Log", "Abs", "Smoothstep", "Inverse", "Step",
	}
)

func (op ArithmeticOp) String() string { return enumName(arithmeticNames[:], int(op), "ArithmeticOp") }
func (op CompareOp) String() string    { return enumName(compareNames[:], int(op), "CompareOp") }
func (op LogicalOp) String() string    { return enumName(logicalNames[:], int(op), "LogicalOp") }
func (f MathFunction) String() string  { return enumName(mathNames[:], int(f), "MathFunction") }

func enumName(names []string, i int, typ string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return typ + "(" + strconv.Itoa(i) + ")"
}

// ParseOp resolves an operation name as printed by the node String methods
// into the node it denotes. Only nodes without static operands other than
// the operator itself are returned.
func ParseOp(name string) (Node, bool) {
	for i, n := range arithmeticNames {
		if n == name {
			return Arithmetic{Op: ArithmeticOp(i)}, true
		}
	}
	for i, n := range compareNames {
		if n == name {
			return Compare{Op: CompareOp(i)}, true
		}
	}
	for i, n := range logicalNames {
		if n == name {
			return Logical{Op: LogicalOp(i)}, true
		}
	}
	for i, n := range mathNames {
		if n == name {
			return Math{Fun: MathFunction(i)}, true
		}
	}

	switch name {
	case "Negate":
		return Negate{}, true
	case "Select":
		return Select{}, true
	case "Sample":
		return Sample{}, true
	case "Return":
		return Return{}, true
	}

	return nil, false
}
