// Package opsf32 is a concrete float32 operator catalog built on the
// CPU compute engine: it gives internal/autodiff's dtype-erased Engine
// real tensors and real adjoints to differentiate, instead of the
// package's own test harness. Every Variable it allocates carries a
// *tensor.TensorNumeric[float32] as its Value.
package opsf32

import (
	"context"
	"fmt"

	"github.com/zerfoo/gradcore/compute"
	"github.com/zerfoo/gradcore/internal/autodiff"
	"github.com/zerfoo/gradcore/internal/graph"
	"github.com/zerfoo/gradcore/numeric"
	"github.com/zerfoo/gradcore/tensor"
)

// Catalog builds float32 Variables and Operators around a CPU compute
// engine. It also supplies autodiff.NumberFillFunc and
// autodiff.BinaryAddFunc, so a Catalog is everything NewEngine needs.
type Catalog struct {
	engine *compute.CPUEngine[float32]
	ctx    context.Context
}

// NewCatalog builds a Catalog backed by a CPU engine. ctx is threaded
// through to every compute.CPUEngine call the catalog makes.
func NewCatalog(ctx context.Context) *Catalog {
	return &Catalog{
		engine: compute.NewCPUEngine[float32](numeric.Float32Ops{}),
		ctx:    ctx,
	}
}

// NewEngine wires the catalog's NumberFill and BinaryAdd into a new
// autodiff.Engine.
func (c *Catalog) NewEngine(opts ...autodiff.Option) *autodiff.Engine {
	return autodiff.NewEngine(c.NumberFill, c.BinaryAdd, opts...)
}

// Leaf wraps an existing float32 tensor as a leaf Variable.
func (c *Catalog) Leaf(t *tensor.TensorNumeric[float32]) *graph.Variable {
	return c.leaf(t.Shape(), t)
}

func (c *Catalog) leaf(shape []int, t *tensor.TensorNumeric[float32]) *graph.Variable {
	v := graph.NewLeafVariable(shape, graph.Float32)
	v.Value = t

	return v
}

func tensorOf(v *graph.Variable) *tensor.TensorNumeric[float32] {
	return v.Value.(*tensor.TensorNumeric[float32]) //nolint:forcetypeassert // opsf32 Variables always carry a float32 tensor.
}

// NumberFill implements autodiff.NumberFillFunc: it allocates a tensor
// of the given shape filled with value. opsf32 only ever deals in
// Float32, so any other dtype is a caller error.
func (c *Catalog) NumberFill(shape []int, dtype graph.DType, value float64) (*graph.Variable, error) {
	if dtype != graph.Float32 {
		return nil, fmt.Errorf("opsf32: unsupported dtype %s", dtype)
	}

	t, err := tensor.New[float32](shape, nil)
	if err != nil {
		return nil, err
	}

	if err := c.engine.Fill(c.ctx, t, float32(value)); err != nil {
		return nil, err
	}

	return c.leaf(shape, t), nil
}

// BinaryAdd implements autodiff.BinaryAddFunc: the elementwise sum of
// two gradients landing on the same slot. Unlike the Add operator
// below, this never carries an adjoint of its own — it is the
// accumulator's own arithmetic, not a differentiable graph node.
func (c *Catalog) BinaryAdd(a, b *graph.Variable) (*graph.Variable, error) {
	out, err := c.engine.Add(c.ctx, tensorOf(a), tensorOf(b))
	if err != nil {
		return nil, err
	}

	return c.leaf(a.Shape, out), nil
}
