package opsf32

import (
	"errors"

	"github.com/zerfoo/gradcore/internal/graph"
	"github.com/zerfoo/gradcore/internal/xblas"
	"github.com/zerfoo/gradcore/tensor"
)

// ErrMatMulShape reports an operand that MatMul cannot multiply: either
// one isn't 2D, or the inner dimensions don't agree.
var ErrMatMulShape = errors.New("opsf32: MatMul requires 2D operands with matching inner dimension")

// matMulOp is y = a @ b for 2D a (m,k) and b (k,n); da = dout @ b^T,
// db = a^T @ dout. Forward and both adjoint matmuls run through
// internal/xblas's BLAS-backed Gemm rather than the CPU engine's own
// MatMul, which only ever sees elementwise/reduction traffic elsewhere
// in this catalog.
type matMulOp struct {
	graph.OpBase

	c *Catalog
}

// MatMul returns the matrix product of 2D tensors a (m,k) and b (k,n).
func (c *Catalog) MatMul(a, b *graph.Variable) (*graph.Variable, error) {
	if len(a.Shape) != 2 || len(b.Shape) != 2 || a.Shape[1] != b.Shape[0] {
		return nil, ErrMatMulShape
	}

	m, k, n := a.Shape[0], a.Shape[1], b.Shape[1]

	op := &matMulOp{c: c}
	outs := op.OpBase.Init(op, "matmul", []*graph.Variable{a, b}, []graph.OutputSpec{{Shape: []int{m, n}, DType: a.DType}})

	out, err := tensor.New[float32]([]int{m, n}, nil)
	if err != nil {
		return nil, err
	}

	xblas.GemmF32(m, n, k, tensorOf(a).Data(), tensorOf(b).Data(), out.Data())
	outs[0].Value = out

	return outs[0], nil
}

func (o *matMulOp) Grad(_, dout, _ *graph.Variable, xIndex int) (*graph.Variable, error) {
	a := o.OpBase.Input(0)
	b := o.OpBase.Input(1)

	m, k, n := a.Shape[0], a.Shape[1], b.Shape[1]
	doutData := tensorOf(dout).Data()

	if xIndex == 0 {
		da, err := tensor.New[float32]([]int{m, k}, nil)
		if err != nil {
			return nil, err
		}

		xblas.GemmF32(m, k, n, doutData, transposeFlat(tensorOf(b).Data(), k, n), da.Data())

		return o.c.leaf(a.Shape, da), nil
	}

	db, err := tensor.New[float32]([]int{k, n}, nil)
	if err != nil {
		return nil, err
	}

	xblas.GemmF32(k, n, m, transposeFlat(tensorOf(a).Data(), m, k), doutData, db.Data())

	return o.c.leaf(b.Shape, db), nil
}

// transposeFlat returns the transpose of an (rows, cols) row-major
// matrix as a fresh row-major (cols, rows) matrix.
func transposeFlat(data []float32, rows, cols int) []float32 {
	t := make([]float32, len(data))

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			t[j*rows+i] = data[i*cols+j]
		}
	}

	return t
}
