package opsf32

import (
	"github.com/zerfoo/gradcore/internal/graph"
	"github.com/zerfoo/gradcore/tensor"
)

// identityOp is y = x; its adjoint passes dout straight through.
type identityOp struct {
	graph.OpBase
}

// Identity returns a copy of x wired into the graph as its own node.
// Used as a tape's boundary marker: TapeTogether adopts the input one
// level upstream of whichever operator a boundary Variable's Producer
// is, so an Identity call gives a tape boundary its own producer
// without perturbing the value.
func (c *Catalog) Identity(x *graph.Variable) (*graph.Variable, error) {
	op := &identityOp{}
	outs := op.OpBase.Init(op, "identity", []*graph.Variable{x}, []graph.OutputSpec{{Shape: x.Shape, DType: x.DType}})
	outs[0].Value = tensorOf(x).Copy()

	return outs[0], nil
}

func (o *identityOp) Grad(_, dout, _ *graph.Variable, _ int) (*graph.Variable, error) {
	return dout, nil
}

// squareOp is y = x*x; dx = 2x*dout.
type squareOp struct {
	graph.OpBase

	c *Catalog
}

// Square returns x*x.
func (c *Catalog) Square(x *graph.Variable) (*graph.Variable, error) {
	op := &squareOp{c: c}
	outs := op.OpBase.Init(op, "square", []*graph.Variable{x}, []graph.OutputSpec{{Shape: x.Shape, DType: x.DType}})

	y, err := c.engine.Mul(c.ctx, tensorOf(x), tensorOf(x))
	if err != nil {
		return nil, err
	}

	outs[0].Value = y

	return outs[0], nil
}

func (o *squareOp) Grad(_, dout, x *graph.Variable, _ int) (*graph.Variable, error) {
	c := o.c

	twoX, err := c.engine.MulScalar(c.ctx, tensorOf(x), 2)
	if err != nil {
		return nil, err
	}

	dx, err := c.engine.Mul(c.ctx, twoX, tensorOf(dout))
	if err != nil {
		return nil, err
	}

	return c.leaf(x.Shape, dx), nil
}

// addOp is y = a+b; the adjoint passes dout through to both operands
// unchanged.
type addOp struct {
	graph.OpBase
}

// Add returns a+b.
func (c *Catalog) Add(a, b *graph.Variable) (*graph.Variable, error) {
	op := &addOp{}
	outs := op.OpBase.Init(op, "add", []*graph.Variable{a, b}, []graph.OutputSpec{{Shape: a.Shape, DType: a.DType}})

	y, err := c.engine.Add(c.ctx, tensorOf(a), tensorOf(b))
	if err != nil {
		return nil, err
	}

	outs[0].Value = y

	return outs[0], nil
}

func (o *addOp) Grad(_, dout, _ *graph.Variable, _ int) (*graph.Variable, error) {
	return dout, nil
}

// subOp is y = a-b; da = dout, db = -dout.
type subOp struct {
	graph.OpBase

	c *Catalog
}

// Sub returns a-b.
func (c *Catalog) Sub(a, b *graph.Variable) (*graph.Variable, error) {
	op := &subOp{c: c}
	outs := op.OpBase.Init(op, "sub", []*graph.Variable{a, b}, []graph.OutputSpec{{Shape: a.Shape, DType: a.DType}})

	y, err := c.engine.Sub(c.ctx, tensorOf(a), tensorOf(b))
	if err != nil {
		return nil, err
	}

	outs[0].Value = y

	return outs[0], nil
}

func (o *subOp) Grad(_, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
	if xIndex == 0 {
		return dout, nil
	}

	c := o.c

	neg, err := c.engine.MulScalar(c.ctx, tensorOf(dout), -1)
	if err != nil {
		return nil, err
	}

	return c.leaf(x.Shape, neg), nil
}

// mulOp is y = a*b; da = dout*b, db = dout*a.
type mulOp struct {
	graph.OpBase

	c *Catalog
}

// Mul returns a*b.
func (c *Catalog) Mul(a, b *graph.Variable) (*graph.Variable, error) {
	op := &mulOp{c: c}
	outs := op.OpBase.Init(op, "mul", []*graph.Variable{a, b}, []graph.OutputSpec{{Shape: a.Shape, DType: a.DType}})

	y, err := c.engine.Mul(c.ctx, tensorOf(a), tensorOf(b))
	if err != nil {
		return nil, err
	}

	outs[0].Value = y

	return outs[0], nil
}

func (o *mulOp) Grad(_, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
	other := o.OpBase.Input(1 - xIndex)

	c := o.c

	dx, err := c.engine.Mul(c.ctx, tensorOf(dout), tensorOf(other))
	if err != nil {
		return nil, err
	}

	return c.leaf(x.Shape, dx), nil
}

// sumOp reduces x to a scalar; its adjoint broadcasts dout back over
// every element of x.
type sumOp struct {
	graph.OpBase

	c *Catalog
}

// Sum reduces x over all axes to a tensor of shape [1].
func (c *Catalog) Sum(x *graph.Variable) (*graph.Variable, error) {
	op := &sumOp{c: c}
	outs := op.OpBase.Init(op, "sum", []*graph.Variable{x}, []graph.OutputSpec{{Shape: []int{1}, DType: x.DType}})

	y, err := c.engine.Sum(c.ctx, tensorOf(x), -1, false)
	if err != nil {
		return nil, err
	}

	outs[0].Value = y

	return outs[0], nil
}

func (o *sumOp) Grad(_, dout, x *graph.Variable, _ int) (*graph.Variable, error) {
	c := o.c

	t, err := tensor.New[float32](x.Shape, nil)
	if err != nil {
		return nil, err
	}

	if err := c.engine.Fill(c.ctx, t, tensorOf(dout).Data()[0]); err != nil {
		return nil, err
	}

	return c.leaf(x.Shape, t), nil
}

// StopGrad returns a copy of x flagged so backward traversal never
// crosses it: its producer is an identity operator, but the output
// carries FlagStopGrad, so that adjoint is never reached (spec §4's
// stop-grad barrier).
func (c *Catalog) StopGrad(x *graph.Variable) (*graph.Variable, error) {
	op := &identityOp{}
	outs := op.OpBase.Init(op, "stop_grad", []*graph.Variable{x}, []graph.OutputSpec{{Shape: x.Shape, DType: x.DType}})
	outs[0].Value = tensorOf(x).Copy()
	outs[0].SetFlag(graph.FlagStopGrad)

	return outs[0], nil
}

// ConstantFill allocates a leaf Variable filled with value, detached
// from any producer — a graph-level convenience around NumberFill for
// callers assembling a forward pass rather than the accumulator.
func (c *Catalog) ConstantFill(shape []int, value float32) (*graph.Variable, error) {
	return c.NumberFill(shape, graph.Float32, float64(value))
}
