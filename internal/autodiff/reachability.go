package autodiff

import "github.com/zerfoo/gradcore/internal/graph"

// tapeRefHolder is satisfied by any node that can stand in for another
// during traversal. Only Operators carry FlagIsTape, so only Operators
// need to implement it; the type assertion in substituteTape simply
// fails closed for any node kind that cannot.
type tapeRefHolder interface {
	TapeRef() *graph.Tape
}

// substituteTape returns the Tape standing in for n if n is flagged
// FlagIsTape and has one, otherwise n itself (spec §4.3: "traversal
// substitutes the Tape in place of that node"). Per spec §4.3/§7/§8
// invariant 4, every tape observed at a substitution site must still be
// intact (Ref == Total); grad.cc asserts this at the same two call
// sites (bfs_forward_with_tape, bfs_backward_with_tape) rather than
// silently tolerating a torn-down boundary, so a non-intact tape is a
// fatal contract violation here too.
func substituteTape(n graph.Node) (graph.Node, error) {
	if !n.HasFlag(graph.FlagIsTape) {
		return n, nil
	}

	h, ok := n.(tapeRefHolder)
	if !ok {
		return n, nil
	}

	t := h.TapeRef()
	if t == nil {
		return n, nil
	}

	if !t.Intact() {
		return nil, graph.ErrPartialTape
	}

	return t, nil
}

// forwardReachable marks, with a fresh pass token, every descendant of
// seeds reached by following outgoing edges (tape-substituted). It
// returns that pass token. Descent is unconditional (spec §4.4 step 1).
func forwardReachable(seeds []graph.Node) (int64, error) {
	t := graph.NextPass()

	queue := make([]graph.Node, len(seeds))
	copy(queue, seeds)

	for _, n := range queue {
		n.SetTFlag(t)
	}

	for i := 0; i < len(queue); i++ {
		node := queue[i]
		for _, e := range node.Outputs() {
			onode, err := substituteTape(e.Node)
			if err != nil {
				return 0, err
			}

			if onode.TFlag() != t {
				onode.SetTFlag(t)
				queue = append(queue, onode)
			}
		}
	}

	return t, nil
}

// backwardGradNodes marks, with a fresh pass token, every ancestor of
// seeds reached by following incoming edges (tape-substituted) for which
// keep returns true. seeds are included unconditionally — callers are
// expected to have already decided whether the loss belongs among them
// (spec §4.4 step 2). It returns the pass token and the marked nodes in
// discovery order.
func backwardGradNodes(seeds []graph.Node, keep func(graph.Node) bool) (int64, []graph.Node, error) {
	t := graph.NextPass()

	queue := make([]graph.Node, len(seeds))
	copy(queue, seeds)

	for _, n := range queue {
		n.SetTFlag(t)
	}

	for i := 0; i < len(queue); i++ {
		node := queue[i]
		for _, e := range node.Inputs() {
			inode, err := substituteTape(e.Node)
			if err != nil {
				return 0, nil, err
			}

			if inode.TFlag() != t && keep(inode) {
				inode.SetTFlag(t)
				queue = append(queue, inode)
			}
		}
	}

	return t, queue, nil
}
