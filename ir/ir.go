package ir

import (
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

// Kind is the shape of a Type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindVector
	KindMatrix
	KindSampler
	KindPointer
)

// Dim is the dimensionality of a sampled image.
// Values match the SPIR-V Dim enumeration.
type Dim uint8

const (
	Dim1D Dim = iota
	Dim2D
	Dim3D
	DimCube
	DimRect
	DimBuffer
)

var dimNames = [...]string{"1D", "2D", "3D", "Cube", "Rect", "Buffer"}

func (d Dim) String() string {
	if int(d) < len(dimNames) {
		return dimNames[d]
	}
	return "Dim(" + strconv.Itoa(int(d)) + ")"
}

// Coordinates returns the number of coordinate components needed to sample
// an image of this dimensionality.
func (d Dim) Coordinates() int {
	switch d {
	case Dim1D, DimBuffer:
		return 1
	case Dim2D, DimRect:
		return 2
	default:
		return 3
	}
}

// StorageClass is where a pointer points to.
type StorageClass uint8

const (
	StorageInput StorageClass = iota
	StorageOutput
	StorageUniform
	StorageUniformConstant
	StorageFunction
)

var storageNames = [...]string{"Input", "Output", "Uniform", "UniformConstant", "Function"}

func (s StorageClass) String() string {
	if int(s) < len(storageNames) {
		return storageNames[s]
	}
	return "StorageClass(" + strconv.Itoa(int(s)) + ")"
}

// Type is an interned type descriptor.
//
// Types are created only through the package constructors and are never
// mutated. Two structurally equal types are the same pointer.
type Type struct {
	kind    Kind
	signed  bool // Int
	double  bool // Float
	count   uint8
	dim     Dim
	storage StorageClass
	elem    *Type // vector component, matrix column, sampled type, pointee
}

// Scalar types.
var (
	Void   = intern(Type{kind: KindVoid})
	Bool   = intern(Type{kind: KindBool})
	Int    = intern(Type{kind: KindInt, signed: true})
	Uint   = intern(Type{kind: KindInt})
	Float  = intern(Type{kind: KindFloat})
	Double = intern(Type{kind: KindFloat, double: true})
)

// Vec returns the vector type with n components of the scalar type elem.
// It panics unless 2 <= n <= 4 and elem is a scalar.
func Vec(n int, elem *Type) *Type {
	if n < 2 || n > 4 {
		panic(fmt.Sprintf("ir: vector of %d components", n))
	}
	if !elem.IsScalar() {
		panic(fmt.Sprintf("ir: vector of %v", elem))
	}
	return intern(Type{kind: KindVector, count: uint8(n), elem: elem})
}

// Mat returns the matrix type with columns columns of the vector type column.
// It panics unless 2 <= columns <= 4 and column is a vector.
func Mat(columns int, column *Type) *Type {
	if columns < 2 || columns > 4 {
		panic(fmt.Sprintf("ir: matrix of %d columns", columns))
	}
	if column.Kind() != KindVector {
		panic(fmt.Sprintf("ir: matrix of %v columns", column))
	}
	return intern(Type{kind: KindMatrix, count: uint8(columns), elem: column})
}

// Sampler returns a combined image sampler type sampling values of the scalar
// type sampled.
func Sampler(sampled *Type, dim Dim) *Type {
	if k := sampled.Kind(); k != KindInt && k != KindFloat {
		panic(fmt.Sprintf("ir: sampler of %v", sampled))
	}
	return intern(Type{kind: KindSampler, dim: dim, elem: sampled})
}

// Pointer returns the pointer type to elem in the storage class sc.
func Pointer(sc StorageClass, elem *Type) *Type {
	return intern(Type{kind: KindPointer, storage: sc, elem: elem})
}

func (t *Type) Kind() Kind { return t.kind }

// Signed reports whether an integer type is signed.
func (t *Type) Signed() bool { return t.signed }

// IsDouble reports whether a float type is 64 bit wide.
func (t *Type) IsDouble() bool { return t.double }

// Count is the number of vector components or matrix columns.
func (t *Type) Count() int { return int(t.count) }

// Elem is the vector component, matrix column, sampled or pointee type.
func (t *Type) Elem() *Type { return t.elem }

func (t *Type) Dim() Dim { return t.dim }

func (t *Type) Storage() StorageClass { return t.storage }

func (t *Type) IsScalar() bool {
	return t.kind == KindBool || t.kind == KindInt || t.kind == KindFloat
}

// Scalar returns the innermost scalar type of a scalar, vector or matrix.
// It returns nil for other kinds.
func (t *Type) Scalar() *Type {
	switch t.kind {
	case KindBool, KindInt, KindFloat:
		return t
	case KindVector:
		return t.elem
	case KindMatrix:
		return t.elem.elem
	}
	return nil
}

// String returns the GLSL-like spelling of t. ParseType accepts it back.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		if t.signed {
			return "int"
		}
		return "uint"
	case KindFloat:
		if t.double {
			return "double"
		}
		return "float"
	case KindVector:
		return scalarPrefix(t.elem) + "vec" + strconv.Itoa(int(t.count))
	case KindMatrix:
		p := scalarPrefix(t.elem.elem)
		if int(t.count) == t.elem.Count() {
			return p + "mat" + strconv.Itoa(int(t.count))
		}
		return p + "mat" + strconv.Itoa(int(t.count)) + "x" + strconv.Itoa(t.elem.Count())
	case KindSampler:
		return scalarPrefix(t.elem) + "sampler" + t.dim.String()
	case KindPointer:
		return "ptr<" + t.storage.String() + ", " + t.elem.String() + ">"
	}

	return "Type(" + strconv.Itoa(int(t.kind)) + ")"
}

func scalarPrefix(s *Type) string {
	switch {
	case s.kind == KindBool:
		return "b"
	case s.kind == KindInt && s.signed:
		return "i"
	case s.kind == KindInt:
		return "u"
	case s.double:
		return "d"
	}
	return ""
}

// ParseType parses the spelling produced by Type.String.
// Pointer types are not accepted.
func ParseType(s string) (*Type, error) {
	switch s {
	case "void":
		return Void, nil
	case "bool":
		return Bool, nil
	case "int":
		return Int, nil
	case "uint":
		return Uint, nil
	case "float":
		return Float, nil
	case "double":
		return Double, nil
	}

	scalar := Float
	rest := s

	if len(rest) > 0 {
		switch rest[0] {
		case 'b':
			scalar, rest = Bool, rest[1:]
		case 'i':
			scalar, rest = Int, rest[1:]
		case 'u':
			scalar, rest = Uint, rest[1:]
		case 'd':
			scalar, rest = Double, rest[1:]
		}
	}

	switch {
	case strings.HasPrefix(rest, "vec"):
		n, err := strconv.Atoi(rest[3:])
		if err != nil || n < 2 || n > 4 {
			return nil, errors.New("bad vector type %q", s)
		}
		return Vec(n, scalar), nil
	case strings.HasPrefix(rest, "mat"):
		cols, rows, ok := strings.Cut(rest[3:], "x")
		c, err := strconv.Atoi(cols)
		r := c
		if ok && err == nil {
			r, err = strconv.Atoi(rows)
		}
		if err != nil || c < 2 || c > 4 || r < 2 || r > 4 {
			return nil, errors.New("bad matrix type %q", s)
		}
		if scalar.Kind() != KindFloat {
			return nil, errors.New("matrix of non-float columns %q", s)
		}
		return Mat(c, Vec(r, scalar)), nil
	case strings.HasPrefix(rest, "sampler"):
		if scalar == Bool {
			return nil, errors.New("bad sampler type %q", s)
		}
		for d, name := range dimNames {
			if rest[len("sampler"):] == name {
				return Sampler(scalar, Dim(d)), nil
			}
		}
		return nil, errors.New("bad sampler dimension %q", s)
	}

	return nil, errors.New("unknown type %q", s)
}

// Size returns the size in bytes of t inside a uniform block.
// Scalars are 4 bytes, doubles 8, vectors and matrices count times their
// element size. Opaque types have no size.
func Size(t *Type) int {
	switch t.kind {
	case KindBool, KindInt:
		return 4
	case KindFloat:
		if t.double {
			return 8
		}
		return 4
	case KindVector, KindMatrix:
		return int(t.count) * Size(t.elem)
	}
	return 0
}
