// Command zerfoo-grad runs a tiny reverse-mode differentiation demo: it
// builds loss = sum(square(x)) for a constant-filled vector x, calls
// Grad, and prints the resulting gradient.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zerfoo/gradcore/internal/autodiff"
	"github.com/zerfoo/gradcore/internal/autodiff/opsf32"
	"github.com/zerfoo/gradcore/internal/graph"
	zgraph "github.com/zerfoo/gradcore/graph"
	"github.com/zerfoo/gradcore/tensor"
)

func main() {
	size := flag.Int("n", 4, "length of the input vector x")
	value := flag.Float64("value", 3, "constant fill value for x")
	fuseGuard := flag.Int("fuse-guard", autodiff.DefaultPreventLargeFusedOp,
		"PreventLargeFusedOp threshold; 0 disables the guard")
	flag.Parse()

	if err := run(*size, *value, *fuseGuard); err != nil {
		log.Printf("zerfoo-grad: %v", err)
		os.Exit(1)
	}
}

func run(size int, value float64, fuseGuard int) error {
	c := opsf32.NewCatalog(context.Background())

	x, err := c.ConstantFill([]int{size}, float32(value))
	if err != nil {
		return fmt.Errorf("building x: %w", err)
	}

	y, err := c.Square(x)
	if err != nil {
		return fmt.Errorf("square(x): %w", err)
	}

	loss, err := c.Sum(y)
	if err != nil {
		return fmt.Errorf("sum(y): %w", err)
	}

	e := c.NewEngine(autodiff.WithPreventLargeFusedOp(fuseGuard))

	grads, err := e.Grad(loss, []*graph.Variable{x})
	if err != nil {
		return fmt.Errorf("grad: %w", err)
	}

	dx, ok := grads[0].Value.(*tensor.TensorNumeric[float32])
	if !ok {
		return fmt.Errorf("unexpected gradient value type %T", grads[0].Value)
	}

	xTensor, ok := x.Value.(*tensor.TensorNumeric[float32])
	if !ok {
		return fmt.Errorf("unexpected x value type %T", x.Value)
	}

	param, err := zgraph.NewParameter("x", xTensor, tensor.New[float32])
	if err != nil {
		return fmt.Errorf("building parameter: %w", err)
	}

	if err := param.AddGradient(dx); err != nil {
		return fmt.Errorf("accumulating into parameter: %w", err)
	}

	fmt.Printf("d(sum(x^2))/dx = %v\n", param.Gradient.Data())

	return nil
}
