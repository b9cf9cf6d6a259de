// Package autodiff implements reverse-mode automatic differentiation
// over the dtype-erased graph primitives in internal/graph: the
// reachability passes that decide which nodes carry gradient, the
// topological sort that sequences backward evaluation, and the
// fan-out accumulator that folds every edge's contribution into a
// single gradient per variable.
package autodiff

import "github.com/zerfoo/gradcore/internal/graph"

// Engine differentiates a loss with respect to a set of target
// variables. It is dtype-erased: it never allocates or reads tensor
// data itself, delegating the two numeric primitives it needs —
// filling a constant and adding two gradients — to the caller-supplied
// NumberFillFunc and BinaryAddFunc. A concrete operator catalog (for
// example internal/autodiff/opsf32) supplies both, together with the
// operators whose Grad/Grads methods the accumulator invokes.
type Engine struct {
	cfg *config

	numberFill NumberFillFunc
	binaryAdd  BinaryAddFunc
}

// NewEngine builds an Engine around the given numeric primitives.
func NewEngine(numberFill NumberFillFunc, binaryAdd BinaryAddFunc, opts ...Option) *Engine {
	return &Engine{
		cfg:        newConfig(opts),
		numberFill: numberFill,
		binaryAdd:  binaryAdd,
	}
}

// Grad computes d(loss)/d(target) for every target, in target order
// (spec §4, §6 "grad"). loss and every target must carry a floating
// dtype. A target unreachable from loss, or reached only through a
// stop-grad barrier, gets a zero-filled gradient of its own shape and
// dtype rather than an error — this mirrors spec §7's non-fatal "missing
// gradient" case, which the engine logs a warning for instead of
// failing the pass.
func (e *Engine) Grad(loss *graph.Variable, targets []*graph.Variable) ([]*graph.Variable, error) {
	if !loss.DType.IsFloating() {
		return nil, ErrNonFloatingLoss
	}

	for _, target := range targets {
		if !target.DType.IsFloating() {
			return nil, ErrNonFloatingTarget
		}
	}

	seeds := make([]graph.Node, len(targets))
	for i, target := range targets {
		seeds[i] = target
	}

	nt, err := forwardReachable(seeds)
	if err != nil {
		return nil, err
	}

	var lossSeed []graph.Node
	if loss.TFlag() == nt {
		lossSeed = []graph.Node{loss}
	}

	_, gnodes, err := backwardGradNodes(lossSeed, func(n graph.Node) bool {
		if n.TFlag() != nt {
			return false
		}

		if n.HasFlag(graph.FlagStopGrad) {
			return false
		}

		if v, ok := n.(*graph.Variable); ok {
			return v.DType.IsFloating()
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	sorted, ntSorted, err := topoSortBackward(gnodes)
	if err != nil {
		return nil, err
	}

	return e.accumulate(loss, targets, sorted, ntSorted)
}
