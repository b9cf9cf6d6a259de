package graph

// GroupedAdjointFunc is the function shape backing a Tape's gradient
// callback: given one incoming adjoint per boundary output (in order,
// nil where a particular output carries none), it fills dins with one
// adjoint per boundary input (same order, left nil for no contribution).
type GroupedAdjointFunc func(douts, dins []*Variable) error

// Tape is a node that stands in for a contiguous sub-region of the graph,
// declared opaque for differentiation purposes (spec §4.3). It is not an
// Operator in the usual sense: traversal substitutes a Tape for the
// Operator it was declared over at edge-follow time, rather than making
// Tape satisfy the Operator interface directly. Tape exposes the same
// Grads(douts, dins []*Variable) error shape as GroupedAdjoint so the
// accumulator can treat a tape-substituted node uniformly with any other
// grouped-form operator.
type Tape struct {
	base

	name     string
	callback GroupedAdjointFunc

	// Total and Ref mirror the tape's declared boundary size. Ref never
	// drops below Total in this engine (nothing here partially tears
	// down a tape mid-pass); traversal asserts Ref == Total as a guard
	// against a boundary broken by graph edits between declaration and
	// use.
	Total int
	Ref   int
}

// NewTape declares a tape over a sub-region whose boundary is marked by
// two lists of already-constructed marker Variables: taped_inputs, each
// produced by the operator that feeds the region from outside (an
// identity op is the usual choice), and taped_outputs, each produced by
// the operator that exposes one of the region's results. Each marker
// variable's producing Operator is flagged FlagIsTape and pointed at the
// returned Tape, so traversal substitutes the Tape in that Operator's
// place. The Tape's own input edges are taken one level further
// upstream, from each input marker's producing Operator's own sole
// input — so backward traversal, on reaching the Tape, continues past
// the region's true boundary rather than back into the marker op.
//
// NewTape reports an error if either list is empty or if an input
// marker's producer has no input of its own to adopt.
func NewTape(tapedInputs, tapedOutputs []*Variable, callback GroupedAdjointFunc) (*Tape, error) {
	if len(tapedInputs) == 0 || len(tapedOutputs) == 0 {
		return nil, ErrInvalidTapeBoundary
	}

	t := &Tape{name: "tape", callback: callback}
	t.Total = len(tapedInputs) + len(tapedOutputs)
	t.Ref = t.Total
	t.SetFlag(FlagIsGrads)

	for i, v := range tapedInputs {
		op := v.Producer
		if op == nil || len(op.Inputs()) == 0 {
			return nil, ErrInvalidTapeBoundary
		}

		op.SetFlag(FlagIsTape)
		op.SetTapeRef(t)
		t.base.inputs = append(t.base.inputs, Edge{Node: op.Inputs()[0].Node, Index: i})
	}

	for _, v := range tapedOutputs {
		op := v.Producer
		if op == nil {
			return nil, ErrInvalidTapeBoundary
		}

		op.SetFlag(FlagIsTape)
		op.SetTapeRef(t)
		t.base.outputs = append(t.base.outputs, Edge{Node: v, Index: 0})
	}

	return t, nil
}

func (t *Tape) Name() string { return t.name }

// Intact reports whether the tape's boundary is still whole: Ref equal
// to Total. Nothing in this engine tears a tape down mid-pass, so this
// is always true today; it exists as the guard spec §4.3 names.
func (t *Tape) Intact() bool { return t.Ref == t.Total }

// Grads invokes the tape's callback.
func (t *Tape) Grads(douts, dins []*Variable) error {
	return t.callback(douts, dins)
}
