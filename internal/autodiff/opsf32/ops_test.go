package opsf32

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zerfoo/gradcore/internal/graph"
	"github.com/zerfoo/gradcore/tensor"
)

func leafF32(t *testing.T, c *Catalog, shape []int, value float32) *graph.Variable {
	t.Helper()

	tt, err := tensor.New[float32](shape, nil)
	require.NoError(t, err)

	for i := range tt.Data() {
		tt.Data()[i] = value
	}

	return c.Leaf(tt)
}

func TestCatalogGradIdentity(t *testing.T) {
	c := NewCatalog(context.Background())
	x := leafF32(t, c, []int{3}, 2)

	y, err := c.Identity(x)
	require.NoError(t, err)

	e := c.NewEngine()
	grads, err := e.Grad(y, []*graph.Variable{x})
	require.NoError(t, err)
	require.Equal(t, []float32{1, 1, 1}, tensorOf(grads[0]).Data())
}

func TestCatalogGradSquareThenSum(t *testing.T) {
	c := NewCatalog(context.Background())
	x := leafF32(t, c, []int{3}, 3)

	y, err := c.Square(x)
	require.NoError(t, err)

	loss, err := c.Sum(y)
	require.NoError(t, err)

	e := c.NewEngine()
	grads, err := e.Grad(loss, []*graph.Variable{x})
	require.NoError(t, err)
	require.Equal(t, []float32{6, 6, 6}, tensorOf(grads[0]).Data())
}

func TestCatalogGradDifferenceOfSquares(t *testing.T) {
	c := NewCatalog(context.Background())
	x := leafF32(t, c, []int{2}, 5)
	y := leafF32(t, c, []int{2}, 2)

	u, err := c.Add(x, y)
	require.NoError(t, err)

	v, err := c.Sub(x, y)
	require.NoError(t, err)

	w, err := c.Mul(u, v)
	require.NoError(t, err)

	loss, err := c.Sum(w)
	require.NoError(t, err)

	e := c.NewEngine()
	grads, err := e.Grad(loss, []*graph.Variable{x, y})
	require.NoError(t, err)
	require.Equal(t, []float32{10, 10}, tensorOf(grads[0]).Data())
	require.Equal(t, []float32{-4, -4}, tensorOf(grads[1]).Data())
}

func TestCatalogStopGradBarrier(t *testing.T) {
	c := NewCatalog(context.Background())
	x := leafF32(t, c, []int{3}, 4)

	frozen, err := c.StopGrad(x)
	require.NoError(t, err)

	w, err := c.Mul(frozen, x)
	require.NoError(t, err)

	loss, err := c.Sum(w)
	require.NoError(t, err)

	e := c.NewEngine()
	grads, err := e.Grad(loss, []*graph.Variable{x})
	require.NoError(t, err)
	require.Equal(t, []float32{4, 4, 4}, tensorOf(grads[0]).Data())
}

func TestCatalogConstantFillIsZeroGradient(t *testing.T) {
	c := NewCatalog(context.Background())
	loss := leafF32(t, c, []int{}, 5)

	constant, err := c.ConstantFill([]int{4}, 0)
	require.NoError(t, err)

	e := c.NewEngine()
	grads, err := e.Grad(loss, []*graph.Variable{constant})
	require.NoError(t, err)
	require.Equal(t, []float32{0, 0, 0, 0}, tensorOf(grads[0]).Data())
}

func TestCatalogRejectsNonFloatingDtype(t *testing.T) {
	c := NewCatalog(context.Background())
	_, err := c.NumberFill([]int{1}, graph.Int32, 1)
	require.Error(t, err)
}
