package backend

import (
	"context"

	"github.com/mwiater/flopsbench/internal/flops"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

func init() {
	Register[blas32.General](Info{
		Name:        "cpu",
		Description: "processor-only execution through gonum's native Go BLAS (Sgemm)",
		Kind:        KindCPU,
	}, openCPU)
}

type cpuDevice struct {
	src *uniformSource
}

func openCPU(_ context.Context, seed uint64) (flops.Device[blas32.General], error) {
	return &cpuDevice{src: newUniformSource(seed)}, nil
}

func (d *cpuDevice) Random(rows, cols int) (blas32.General, error) {
	return blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   d.src.float32s(rows * cols),
	}, nil
}

func (d *cpuDevice) MatMul(a, b blas32.General) (blas32.General, error) {
	c := blas32.General{
		Rows:   a.Rows,
		Cols:   b.Cols,
		Stride: b.Cols,
		Data:   make([]float32, a.Rows*b.Cols),
	}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a, b, 0, c)
	return c, nil
}

// Sync is a no-op; Gemm returns after the product is written.
func (d *cpuDevice) Sync() error { return nil }

func (d *cpuDevice) Close() error { return nil }
