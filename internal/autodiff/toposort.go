package autodiff

import "github.com/zerfoo/gradcore/internal/graph"

// topoSortBackward Kahn-sorts nodes (the gradient-carrying subgraph
// already marked by backwardGradNodes) into reverse execution order
// (spec §4.4 step 3). "Remaining dependencies" for a node is the count
// of its outgoing edges (tape-substituted) whose target is also in
// nodes; the loss and its immediate consumers have zero remaining
// dependencies and seed the sort. It returns the sorted order, the pass
// token used to mark nodes as members of the set, and an error if the
// sort did not visit every node (a cycle not mediated by a tape).
func topoSortBackward(nodes []graph.Node) ([]graph.Node, int64, error) {
	t := graph.NextPass()

	for _, n := range nodes {
		n.SetTFlag(t)
	}

	sorted := make([]graph.Node, 0, len(nodes))

	for _, n := range nodes {
		var deps int64
		for _, e := range n.Outputs() {
			onode, err := substituteTape(e.Node)
			if err != nil {
				return nil, 0, err
			}

			if onode.TFlag() == t {
				deps++
			}
		}

		n.SetCustomData(deps)
		if deps == 0 {
			sorted = append(sorted, n)
		}
	}

	for i := 0; i < len(sorted); i++ {
		node := sorted[i]
		for _, e := range node.Inputs() {
			inode, err := substituteTape(e.Node)
			if err != nil {
				return nil, 0, err
			}

			if inode.TFlag() != t {
				continue
			}

			remaining := inode.CustomData() - 1
			inode.SetCustomData(remaining)

			if remaining == 0 {
				sorted = append(sorted, inode)
			}
		}
	}

	if len(sorted) != len(nodes) {
		return nil, 0, ErrSortSizeMismatch
	}

	return sorted, t, nil
}
