package graph

// OutputSpec describes one output Variable an Operator construction must
// allocate: its shape and dtype. Operator implementations supply one
// OutputSpec per result they produce.
type OutputSpec struct {
	Shape []int
	DType DType
}

// Operator is a node that consumes zero or more input Variables and
// produces one or more output Variables. Concrete operators (the demo
// catalog in internal/autodiff/opsf32, or any external collaborator)
// embed OpBase and call Init to wire themselves into the graph.
type Operator interface {
	Node

	Name() string

	NumInputs() int
	NumOutputs() int

	// Input returns the i'th Variable this operator consumes.
	Input(i int) *Variable
	// Output returns the k'th Variable this operator produces.
	Output(k int) *Variable

	TapeRef() *Tape
	SetTapeRef(t *Tape)
}

// SingleOutputAdjoint is the adjoint protocol for operators with exactly
// one output (spec §4.5's "single-output form"). Grad computes the
// contribution to x's gradient given the operator's sole output and that
// output's incoming gradient. xIndex is x's position within the
// operator's own input list. A nil result means the operator has no
// gradient to contribute for that input.
type SingleOutputAdjoint interface {
	Operator
	Grad(out, dout, x *Variable, xIndex int) (*Variable, error)
}

// GroupedAdjoint is the adjoint protocol for operators with more than one
// output, or whose outputs' gradients must be considered together (spec
// §4.5's "grouped form"). Grads receives the incoming gradient for every
// output (a nil entry means that output has none) and must populate dins
// with the contribution to every input's gradient (leaving an entry nil
// means no contribution).
type GroupedAdjoint interface {
	Operator
	Grads(douts []*Variable, dins []*Variable) error
}

// OpBase is the struct concrete operators embed. It carries the shared
// node bookkeeping plus the operator-specific identity and tape-
// substitution link.
type OpBase struct {
	base

	name    string
	tapeRef *Tape
}

// Init wires self into the graph: it records an input edge to each
// element of inputs (and the matching consumer edge back from each
// input), allocates one output Variable per entry in outSpecs with self
// as producer, and returns the allocated outputs in order. self must be
// the concrete operator value that embeds this OpBase.
func (b *OpBase) Init(self Operator, name string, inputs []*Variable, outSpecs []OutputSpec) []*Variable {
	b.name = name

	for i, in := range inputs {
		b.base.inputs = append(b.base.inputs, Edge{Node: in, Index: i})
		in.AddOutputEdge(Edge{Node: self, Index: i})
	}

	outs := make([]*Variable, len(outSpecs))
	for k, spec := range outSpecs {
		v := newVariable(spec.Shape, spec.DType)
		v.Producer = self
		v.inputs = []Edge{{Node: self, Index: k}}

		b.base.outputs = append(b.base.outputs, Edge{Node: v, Index: k})
		outs[k] = v
	}

	return outs
}

func (b *OpBase) Name() string { return b.name }

func (b *OpBase) NumInputs() int  { return len(b.base.inputs) }
func (b *OpBase) NumOutputs() int { return len(b.base.outputs) }

// Input returns the i'th Variable this operator consumes. It panics if i
// is out of range or the edge at i is not a Variable, both of which
// indicate a malformed operator construction rather than a runtime
// condition callers should recover from.
func (b *OpBase) Input(i int) *Variable {
	return b.base.inputs[i].Node.(*Variable)
}

// Output returns the k'th Variable this operator produces.
func (b *OpBase) Output(k int) *Variable {
	return b.base.outputs[k].Node.(*Variable)
}

func (b *OpBase) TapeRef() *Tape { return b.tapeRef }

func (b *OpBase) SetTapeRef(t *Tape) { b.tapeRef = t }
