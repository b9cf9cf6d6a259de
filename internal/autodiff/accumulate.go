package autodiff

import "github.com/zerfoo/gradcore/internal/graph"

// idEntry is one slot of the linear id buffer emitted by phase A and
// replayed by phase B. A nil node is the per-variable sentinel.
type idEntry struct {
	node  graph.Node
	index int64
}

// accumulate runs spec §4.6's two-phase accumulation over sorted (the
// gradient-carrying subgraph in reverse execution order, dense-indexed
// by topoSortBackward's pass token nt) and returns one gradient per
// target, in target order.
func (e *Engine) accumulate(loss *graph.Variable, targets []*graph.Variable, sorted []graph.Node, nt int64) ([]*graph.Variable, error) {
	gvars := make([]*graph.Variable, 0, len(sorted))

	for _, n := range sorted {
		if v, ok := n.(*graph.Variable); ok {
			v.SetCustomData(int64(len(gvars)))
			gvars = append(gvars, v)
		}
	}

	grads := make([]*graph.Variable, len(gvars))

	targetID := make([]int64, len(targets))
	for i, tgt := range targets {
		if tgt.TFlag() == nt {
			targetID[i] = tgt.CustomData()
		} else {
			targetID[i] = -1
		}
	}

	if len(grads) > 0 {
		seed, err := e.numberFill(loss.Shape, loss.DType, 1)
		if err != nil {
			return nil, err
		}

		assignAttrs(seed, loss)
		grads[0] = seed
	}

	idBuffer, err := e.emit(gvars, nt)
	if err != nil {
		return nil, err
	}

	if err := e.apply(gvars, grads, idBuffer); err != nil {
		return nil, err
	}

	results := make([]*graph.Variable, len(targets))

	for i, tgt := range targets {
		id := targetID[i]

		var result *graph.Variable
		if id >= 0 {
			result = grads[id]
		}

		if result == nil {
			filled, err := e.numberFill(tgt.Shape, tgt.DType, 0)
			if err != nil {
				return nil, err
			}

			assignAttrs(filled, tgt)
			e.cfg.logger.Printf("target %d (%v) has no gradient; defaulting to zero", i, tgt.Shape)
			result = filled
		}

		results[i] = result
	}

	return results, nil
}

// emit is phase A: for every variable at dense index i > 0, record each
// consuming operator once (tape-substituted, skipping consumers outside
// the current pass) followed by its output and, for grouped-form
// consumers, input (var, id) pairs — terminating each variable's run
// with a nil sentinel (spec §4.6 phase A).
func (e *Engine) emit(gvars []*graph.Variable, nt int64) ([]idEntry, error) {
	idBuffer := make([]idEntry, 0, len(gvars)+10)

	for i := 1; i < len(gvars); i++ {
		v := gvars[i]

		for _, oe := range v.Outputs() {
			op, err := substituteTape(oe.Node)
			if err != nil {
				return nil, err
			}

			if op.TFlag() != nt {
				continue
			}

			idBuffer = append(idBuffer, idEntry{op, int64(oe.Index)})

			if op.HasFlag(graph.FlagIsGrads) {
				// Don't re-emit this operator from another of its inputs.
				op.SetTFlag(0)

				for _, oo := range op.Outputs() {
					idBuffer = append(idBuffer, varIDEntry(oo.Node, nt))
				}

				for _, oi := range op.Inputs() {
					idBuffer = append(idBuffer, varIDEntry(oi.Node, nt))
				}
			} else {
				for _, oo := range op.Outputs() {
					idBuffer = append(idBuffer, varIDEntry(oo.Node, nt))
				}
			}
		}

		idBuffer = append(idBuffer, idEntry{})
	}

	return idBuffer, nil
}

func varIDEntry(n graph.Node, nt int64) idEntry {
	id := int64(-1)
	if n.TFlag() == nt {
		id = n.CustomData()
	}

	return idEntry{node: n, index: id}
}

// apply is phase B: replaying the id buffer recorded by emit, it
// constructs each gvar's gradient by invoking the adjoint of every
// consumer that was emitted for it, accumulating contributions with
// BinaryAddFunc and applying the fuse guard along single-output chains
// (spec §4.6 phase B).
func (e *Engine) apply(gvars []*graph.Variable, grads []*graph.Variable, idBuffer []idEntry) error {
	j := 0

	for i := 1; i < len(gvars); i++ {
		v := gvars[i]
		gsum := 0

		for idBuffer[j].node != nil {
			opNode := idBuffer[j].node
			xIndex := int(idBuffer[j].index)
			j++

			nOut := len(opNode.Outputs())

			if opNode.HasFlag(graph.FlagIsGrads) {
				nIn := len(opNode.Inputs())

				douts := make([]*graph.Variable, nOut)
				for k := 0; k < nOut; k++ {
					if idBuffer[j].index >= 0 {
						douts[k] = grads[idBuffer[j].index]
					}

					j++
				}

				dins := make([]*graph.Variable, nIn)
				if err := callGrads(opNode, douts, dins); err != nil {
					return err
				}

				for k := 0; k < nIn; k++ {
					id := idBuffer[j].index
					j++

					if id < 0 {
						continue
					}

					din := dins[k]

					switch {
					case din != nil && grads[id] != nil:
						sum, err := e.binaryAdd(grads[id], din)
						if err != nil {
							return err
						}

						grads[id] = sum
					case din != nil:
						grads[id] = din
					}
				}
			} else {
				for k := 0; k < nOut; k++ {
					id := idBuffer[j].index
					out, _ := idBuffer[j].node.(*graph.Variable)
					j++

					if id < 0 {
						continue
					}

					dout := grads[id]

					dvar, err := callGrad(opNode, out, dout, v, xIndex)
					if err != nil {
						return err
					}

					if dvar == nil {
						continue
					}

					if !graph.ShapeEquals(dvar.Shape, v.Shape) {
						return ErrShapeMismatch
					}

					if grads[i] == nil {
						grads[i] = dvar
					} else {
						sum, err := e.binaryAdd(grads[i], dvar)
						if err != nil {
							return err
						}

						grads[i] = sum
						gsum++

						if e.cfg.preventLargeFusedOp > 0 && gsum >= e.cfg.preventLargeFusedOp {
							grads[i].SetFlag(graph.FlagStopFuse)
						}

						assignAttrs(grads[i], v)
					}
				}
			}
		}

		j++ // skip the sentinel
	}

	return nil
}
