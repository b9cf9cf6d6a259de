package graph

import "errors"

var (
	// ErrShapeMismatch is returned when two variables expected to share a
	// shape do not.
	ErrShapeMismatch = errors.New("graph: shape mismatch")

	// ErrUnknownAdjointProtocol is returned when an Operator implements
	// neither SingleOutputAdjoint nor GroupedAdjoint.
	ErrUnknownAdjointProtocol = errors.New("graph: operator implements no adjoint protocol")

	// ErrPartialTape is returned when a Tape's Ref no longer equals its
	// Total, meaning its declared boundary was broken by a graph edit
	// after declaration.
	ErrPartialTape = errors.New("graph: tape boundary is no longer intact")

	// ErrInvalidTapeBoundary is returned by NewTape when a boundary list
	// is empty, or an input marker variable has no producer with its own
	// input to adopt.
	ErrInvalidTapeBoundary = errors.New("graph: invalid tape boundary")
)
