package autodiff

import "errors"

var (
	// ErrNonFloatingLoss is returned when Grad is called with a loss
	// variable whose dtype cannot carry a gradient.
	ErrNonFloatingLoss = errors.New("autodiff: loss must be a floating-point variable")

	// ErrNonFloatingTarget is returned when any requested target's dtype
	// cannot carry a gradient.
	ErrNonFloatingTarget = errors.New("autodiff: target must be a floating-point variable")

	// ErrShapeMismatch is returned when an operator's adjoint does not
	// match the shape of the variable it differentiates.
	ErrShapeMismatch = errors.New("autodiff: adjoint shape does not match source variable")

	// ErrSortSizeMismatch is returned when the topological sort visits
	// fewer or more nodes than it was given, indicating a malformed
	// graph (a cycle not mediated by a tape, or a broken edge).
	ErrSortSizeMismatch = errors.New("autodiff: topological sort did not visit every node")

	// ErrEmptyTapeBoundary is returned by TapeTogether when either the
	// input or output boundary list is empty.
	ErrEmptyTapeBoundary = errors.New("autodiff: tape_together requires a non-empty input and output boundary")

	// ErrUnknownAdjointProtocol is returned when a node encountered
	// during accumulation implements neither the single-output nor the
	// grouped adjoint protocol.
	ErrUnknownAdjointProtocol = errors.New("autodiff: node implements neither Grad nor Grads")
)
