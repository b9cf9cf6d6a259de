package autodiff

import "github.com/zerfoo/gradcore/internal/graph"

// NumberFillFunc allocates a new leaf Variable of the given shape and
// dtype whose tensor value is filled with a constant scalar. Per Grad the
// engine calls it once to seed the loss's own gradient with 1 (when any
// node carries a gradient), and once per target left without a gradient,
// filled with 0 (spec §4.6, §7). The engine never calls it with a non-floating dtype.
type NumberFillFunc func(shape []int, dtype graph.DType, value float64) (*graph.Variable, error)

// BinaryAddFunc returns a new Variable equal to the elementwise sum of
// a and b, which always share a's shape and dtype. The accumulator calls
// it whenever a second contribution lands on a gradient slot that
// already holds one (spec §4.6).
type BinaryAddFunc func(a, b *graph.Variable) (*graph.Variable, error)

// singleGradder is the structural shape of graph.SingleOutputAdjoint,
// checked with a plain type assertion so accumulation can treat a
// tape-substituted node the same as any concrete operator.
type singleGradder interface {
	Grad(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error)
}

// groupedGradder is the structural shape of graph.GroupedAdjoint and of
// *graph.Tape.
type groupedGradder interface {
	Grads(douts, dins []*graph.Variable) error
}

// callGrad is this engine's make_grad: it dispatches to an operator's
// single-output adjoint, but never with a nil dout. grad.cc's make_grad
// short-circuits to nullptr the moment dout is null (grad.cc:23-24)
// rather than asking the operator to differentiate a structurally-zero
// contribution (spec §4.2) — operators are written assuming dout is a
// real tensor.
func callGrad(n graph.Node, out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
	if dout == nil {
		return nil, nil
	}

	g, ok := n.(singleGradder)
	if !ok {
		return nil, ErrUnknownAdjointProtocol
	}

	return g.Grad(out, dout, x, xIndex)
}

func callGrads(n graph.Node, douts, dins []*graph.Variable) error {
	g, ok := n.(groupedGradder)
	if !ok {
		return ErrUnknownAdjointProtocol
	}

	return g.Grads(douts, dins)
}

// assignAttrs propagates the subset of attributes spec §4.6 calls out as
// carried from a source variable to a freshly produced gradient: a
// stop-fuse barrier must not be silently dropped by accumulation.
func assignAttrs(dst, src *graph.Variable) {
	if src.HasFlag(graph.FlagStopFuse) {
		dst.SetFlag(graph.FlagStopFuse)
	}
}

// TapeTogether declares taped_inputs and taped_outputs as the boundary
// of a single opaque node for differentiation purposes, differentiated
// by callback (spec §4.3, §6 "tape_together"). Both boundary lists must
// be non-empty; every element of taped_outputs must already have a
// producing operator, since that operator is what gets flagged and
// substituted at traversal time.
func TapeTogether(tapedInputs, tapedOutputs []*graph.Variable, callback graph.GroupedAdjointFunc) (*graph.Tape, error) {
	if len(tapedInputs) == 0 || len(tapedOutputs) == 0 {
		return nil, ErrEmptyTapeBoundary
	}

	return graph.NewTape(tapedInputs, tapedOutputs, callback)
}
