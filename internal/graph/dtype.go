// Package graph implements the low-level, dtype-erased graph primitives
// that the autodiff engine walks: nodes, edges, the process-wide pass
// counter, and the Variable/Operator/Tape node kinds.
package graph

// DType tags the elemental type of a Variable's tensor.
type DType int

// Supported dtype tags. The set is intentionally small: the engine only
// ever needs to know whether a dtype is floating-point.
const (
	Float32 DType = iota
	Float64
	Int32
	Int64
)

// String returns a human-readable name for the dtype, used in warnings
// and error messages.
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// IsFloating reports whether values of this dtype can carry a gradient.
// A non-floating variable may exist in the graph but is always skipped
// during backward traversal.
func (d DType) IsFloating() bool {
	return d == Float32 || d == Float64
}
