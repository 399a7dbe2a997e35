package backend

import (
	"context"
	"fmt"

	"github.com/ajroetker/go-highway/hwy/contrib/matmul"
	"github.com/mwiater/flopsbench/internal/flops"
)

func init() {
	Register[rowMajor](Info{
		Name:        "highway",
		Description: "portable SIMD kernels from go-highway (MatMulAuto, AVX2/AVX-512/NEON/SME dispatch)",
		Kind:        KindVector,
	}, openHighway)
}

// rowMajor is a dense row-major float32 matrix.
type rowMajor struct {
	rows, cols int
	data       []float32
}

type highwayDevice struct {
	src *uniformSource
}

func openHighway(_ context.Context, seed uint64) (flops.Device[rowMajor], error) {
	return &highwayDevice{src: newUniformSource(seed)}, nil
}

func (d *highwayDevice) Random(rows, cols int) (rowMajor, error) {
	return rowMajor{rows: rows, cols: cols, data: d.src.float32s(rows * cols)}, nil
}

func (d *highwayDevice) MatMul(a, b rowMajor) (rowMajor, error) {
	if a.cols != b.rows {
		return rowMajor{}, fmt.Errorf("shape mismatch: %dx%d * %dx%d", a.rows, a.cols, b.rows, b.cols)
	}
	c := rowMajor{rows: a.rows, cols: b.cols, data: make([]float32, a.rows*b.cols)}
	matmul.MatMulAuto(a.data, b.data, c.data, a.rows, b.cols, a.cols)
	return c, nil
}

func (d *highwayDevice) Sync() error { return nil }

func (d *highwayDevice) Close() error { return nil }
