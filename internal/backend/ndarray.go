package backend

import (
	"context"

	"github.com/mwiater/flopsbench/internal/flops"
	"gorgonia.org/tensor"
)

func init() {
	Register[*tensor.Dense](Info{
		Name:        "ndarray",
		Description: "vectorized n-dimensional arrays from gorgonia/tensor (StdEng MatMul)",
		Kind:        KindVector,
	}, openNDArray)
}

type ndarrayDevice struct {
	src *uniformSource
}

func openNDArray(_ context.Context, seed uint64) (flops.Device[*tensor.Dense], error) {
	return &ndarrayDevice{src: newUniformSource(seed)}, nil
}

func (d *ndarrayDevice) Random(rows, cols int) (*tensor.Dense, error) {
	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(d.src.float32s(rows*cols)),
	), nil
}

func (d *ndarrayDevice) MatMul(a, b *tensor.Dense) (*tensor.Dense, error) {
	return a.MatMul(b)
}

func (d *ndarrayDevice) Sync() error { return nil }

func (d *ndarrayDevice) Close() error { return nil }
