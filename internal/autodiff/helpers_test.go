package autodiff

import "github.com/zerfoo/gradcore/internal/graph"

// The tests in this package exercise the engine against a tiny in-memory
// float64 "tensor": a Variable's Value holds a plain []float64 of length
// Num. This stands in for a real tensor backend the way a fake clock
// stands in for wall time — just enough numeric behavior to check the
// traversal and accumulation logic, without pulling in tensor/compute.

func vals(v *graph.Variable) []float64 { return v.Value.([]float64) }

func fillF64(n int, x float64) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = x
	}

	return d
}

func addF64(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}

	return out
}

func subF64(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}

	return out
}

func mulF64(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}

	return out
}

func negF64(a []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = -a[i]
	}

	return out
}

func sumF64(a []float64) float64 {
	var s float64
	for _, x := range a {
		s += x
	}

	return s
}

func newLeaf(shape []int, value float64) *graph.Variable {
	v := graph.NewLeafVariable(shape, graph.Float32)
	v.Value = fillF64(v.Num, value)

	return v
}

func testNumberFill(shape []int, dtype graph.DType, value float64) (*graph.Variable, error) {
	v := graph.NewLeafVariable(shape, dtype)
	v.Value = fillF64(v.Num, value)

	return v, nil
}

func testBinaryAdd(a, b *graph.Variable) (*graph.Variable, error) {
	v := graph.NewLeafVariable(a.Shape, a.DType)
	v.Value = addF64(vals(a), vals(b))

	return v, nil
}

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(testNumberFill, testBinaryAdd, opts...)
}

// testOp is a generic single-output operator whose adjoint is supplied
// by the test as a plain closure, avoiding a bespoke type per forward
// function exercised below.
type testOp struct {
	graph.OpBase

	gradFn func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error)
}

func (o *testOp) Grad(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
	return o.gradFn(out, dout, x, xIndex)
}

func newTestOp(name string, inputs []*graph.Variable, outShape []int, forward func(ins []*graph.Variable) []float64,
	gradFn func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error),
) (*testOp, *graph.Variable) {
	op := &testOp{gradFn: gradFn}
	outs := op.OpBase.Init(op, name, inputs, []graph.OutputSpec{{Shape: outShape, DType: graph.Float32}})
	out := outs[0]
	out.Value = forward(inputs)

	return op, out
}

func identity(x *graph.Variable) (*testOp, *graph.Variable) {
	return newTestOp("identity", []*graph.Variable{x}, x.Shape,
		func(ins []*graph.Variable) []float64 { return append([]float64{}, vals(ins[0])...) },
		func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) { return dout, nil })
}

func square(x *graph.Variable) (*testOp, *graph.Variable) {
	return newTestOp("square", []*graph.Variable{x}, x.Shape,
		func(ins []*graph.Variable) []float64 { return mulF64(vals(ins[0]), vals(ins[0])) },
		func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
			d := make([]float64, x.Num)
			xv, doutv := vals(x), vals(dout)
			for i := range d {
				d[i] = 2 * xv[i] * doutv[i]
			}

			dx := graph.NewLeafVariable(x.Shape, x.DType)
			dx.Value = d

			return dx, nil
		})
}

func addOp(a, b *graph.Variable) (*testOp, *graph.Variable) {
	return newTestOp("add", []*graph.Variable{a, b}, a.Shape,
		func(ins []*graph.Variable) []float64 { return addF64(vals(ins[0]), vals(ins[1])) },
		func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) { return dout, nil })
}

func subOp(a, b *graph.Variable) (*testOp, *graph.Variable) {
	return newTestOp("sub", []*graph.Variable{a, b}, a.Shape,
		func(ins []*graph.Variable) []float64 { return subF64(vals(ins[0]), vals(ins[1])) },
		func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
			dx := graph.NewLeafVariable(x.Shape, x.DType)
			if xIndex == 0 {
				dx.Value = append([]float64{}, vals(dout)...)
			} else {
				dx.Value = negF64(vals(dout))
			}

			return dx, nil
		})
}

func mulOp(a, b *graph.Variable) *testOp {
	op := &testOp{}
	outs := op.OpBase.Init(op, "mul", []*graph.Variable{a, b}, []graph.OutputSpec{{Shape: a.Shape, DType: a.DType}})
	outs[0].Value = mulF64(vals(a), vals(b))
	op.gradFn = func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
		other := op.Input(1 - xIndex)
		dx := graph.NewLeafVariable(x.Shape, x.DType)
		dx.Value = mulF64(vals(dout), vals(other))

		return dx, nil
	}

	return op
}

func sumOp(x *graph.Variable) (*testOp, *graph.Variable) {
	return newTestOp("sum", []*graph.Variable{x}, nil,
		func(ins []*graph.Variable) []float64 { return []float64{sumF64(vals(ins[0]))} },
		func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) {
			dx := graph.NewLeafVariable(x.Shape, x.DType)
			dx.Value = fillF64(x.Num, vals(dout)[0])

			return dx, nil
		})
}

func stopGrad(x *graph.Variable) *graph.Variable {
	op, out := newTestOp("stop_grad", []*graph.Variable{x}, x.Shape,
		func(ins []*graph.Variable) []float64 { return append([]float64{}, vals(ins[0])...) },
		func(out, dout, x *graph.Variable, xIndex int) (*graph.Variable, error) { return dout, nil })
	_ = op

	out.SetFlag(graph.FlagStopGrad)

	return out
}
