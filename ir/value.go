package ir

import (
	"fmt"
	"strings"
)

// Value is a typed constant carried by a Constant node.
type Value interface {
	// Type returns the type of the value, or nil when the value has no
	// well-formed shape (ragged vector, mixed components).
	Type() *Type
	value()
}

type (
	BoolValue   bool
	IntValue    int32
	UintValue   uint32
	FloatValue  float32
	DoubleValue float64

	// VectorValue is a vector constant. Components must be scalars of the
	// same type.
	VectorValue []Value

	// MatrixValue is a matrix constant made of column vectors.
	MatrixValue []VectorValue
)

func (BoolValue) value()   {}
func (IntValue) value()    {}
func (UintValue) value()   {}
func (FloatValue) value()  {}
func (DoubleValue) value() {}
func (VectorValue) value() {}
func (MatrixValue) value() {}

func (BoolValue) Type() *Type   { return Bool }
func (IntValue) Type() *Type    { return Int }
func (UintValue) Type() *Type   { return Uint }
func (FloatValue) Type() *Type  { return Float }
func (DoubleValue) Type() *Type { return Double }

func (v VectorValue) Type() *Type {
	if len(v) < 2 || len(v) > 4 {
		return nil
	}

	elem := v[0].Type()
	if elem == nil || !elem.IsScalar() {
		return nil
	}

	for _, c := range v[1:] {
		if c.Type() != elem {
			return nil
		}
	}

	return Vec(len(v), elem)
}

func (m MatrixValue) Type() *Type {
	if len(m) < 2 || len(m) > 4 {
		return nil
	}

	col := m[0].Type()
	if col == nil {
		return nil
	}

	for _, c := range m[1:] {
		if c.Type() != col {
			return nil
		}
	}

	return Mat(len(m), col)
}

func (v VectorValue) String() string {
	var b strings.Builder

	b.WriteString("(")
	for i, c := range v {
		if i != 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", c)
	}
	b.WriteString(")")

	return b.String()
}

// Describe names the type of v for error messages, including shapes that
// have no Type.
func Describe(v Value) string {
	if t := v.Type(); t != nil {
		return t.String()
	}

	switch v := v.(type) {
	case VectorValue:
		parts := make([]string, len(v))
		for i, c := range v {
			parts[i] = Describe(c)
		}
		return "vector(" + strings.Join(parts, ", ") + ")"
	case MatrixValue:
		parts := make([]string, len(v))
		for i, c := range v {
			parts[i] = Describe(c)
		}
		return "matrix(" + strings.Join(parts, ", ") + ")"
	}

	return fmt.Sprintf("%T", v)
}

func Vec2f(x, y float32) VectorValue       { return VectorValue{FloatValue(x), FloatValue(y)} }
func Vec3f(x, y, z float32) VectorValue    { return VectorValue{FloatValue(x), FloatValue(y), FloatValue(z)} }
func Vec4f(x, y, z, w float32) VectorValue { return VectorValue{FloatValue(x), FloatValue(y), FloatValue(z), FloatValue(w)} }

func Vec2d(x, y float64) VectorValue    { return VectorValue{DoubleValue(x), DoubleValue(y)} }
func Vec3d(x, y, z float64) VectorValue { return VectorValue{DoubleValue(x), DoubleValue(y), DoubleValue(z)} }

func Vec2i(x, y int32) VectorValue       { return VectorValue{IntValue(x), IntValue(y)} }
func Vec3i(x, y, z int32) VectorValue    { return VectorValue{IntValue(x), IntValue(y), IntValue(z)} }
func Vec4i(x, y, z, w int32) VectorValue { return VectorValue{IntValue(x), IntValue(y), IntValue(z), IntValue(w)} }

func Vec2u(x, y uint32) VectorValue    { return VectorValue{UintValue(x), UintValue(y)} }
func Vec3u(x, y, z uint32) VectorValue { return VectorValue{UintValue(x), UintValue(y), UintValue(z)} }

// Identity returns the n×n float identity matrix.
func Identity(n int) MatrixValue {
	m := make(MatrixValue, n)

	for c := range m {
		m[c] = make(VectorValue, n)
		for r := range m[c] {
			if r == c {
				m[c][r] = FloatValue(1)
			} else {
				m[c][r] = FloatValue(0)
			}
		}
	}

	return m
}
