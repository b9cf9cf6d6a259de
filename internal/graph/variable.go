package graph

// Variable is a tensor-valued node. The engine never reads or writes its
// Value; Value exists purely so operator implementations and callers can
// round-trip real tensor data through the graph.
type Variable struct {
	base

	Shape []int
	DType DType
	Num   int

	// LoopOptions is an opaque per-variable hint propagated to its
	// gradient by the accumulator (spec §4.6 "attribute propagation").
	// The engine never interprets it.
	LoopOptions any

	// Producer is the Operator that produced this variable, or nil for a
	// leaf (an input/constant/parameter).
	Producer Operator

	// Value is an opaque handle to the variable's real tensor data, set
	// and read only by operator implementations (spec's tensor-storage
	// collaborator), never by the engine itself.
	Value any
}

// NewLeafVariable constructs a Variable with no producer: an input,
// constant, or trainable parameter.
func NewLeafVariable(shape []int, dtype DType) *Variable {
	v := newVariable(shape, dtype)
	return v
}

func newVariable(shape []int, dtype DType) *Variable {
	num := 1
	for _, d := range shape {
		num *= d
	}

	v := &Variable{Shape: shape, DType: dtype, Num: num}
	v.SetFlag(FlagIsVar)

	return v
}

// IsVariable reports true; overrides base's default.
func (v *Variable) IsVariable() bool { return true }

// ShapeEquals reports whether a and b describe identical extents.
func ShapeEquals(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
