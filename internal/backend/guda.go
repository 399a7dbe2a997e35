package backend

import (
	"context"
	"fmt"

	"github.com/LynnColeArt/guda"
	"github.com/mwiater/flopsbench/internal/flops"
)

func init() {
	Register[gudaMatrix](Info{
		Name:        "guda",
		Description: "CUDA-compatible device API (Malloc/Memcpy/GEMM/Synchronize), CPU-emulated by GUDA",
		Kind:        KindCPU,
	}, openGUDA)
}

// gudaMatrix is a row-major float32 matrix resident in device memory.
type gudaMatrix struct {
	ptr        guda.DevicePtr
	rows, cols int
}

type gudaDevice struct {
	src      *uniformSource
	operands []guda.DevicePtr
	// last holds the most recent product; it is freed when the next one is produced.
	last *guda.DevicePtr
}

func openGUDA(_ context.Context, seed uint64) (flops.Device[gudaMatrix], error) {
	if err := guda.SetDevice(0); err != nil {
		return nil, fmt.Errorf("select device 0: %w", err)
	}
	return &gudaDevice{src: newUniformSource(seed)}, nil
}

func (d *gudaDevice) Random(rows, cols int) (gudaMatrix, error) {
	host := d.src.float32s(rows * cols)
	bytes := len(host) * float32Size
	ptr, err := guda.Malloc(bytes)
	if err != nil {
		return gudaMatrix{}, fmt.Errorf("malloc %d bytes: %w", bytes, err)
	}
	if err := guda.Memcpy(ptr, host, bytes, guda.MemcpyHostToDevice); err != nil {
		_ = guda.Free(ptr)
		return gudaMatrix{}, fmt.Errorf("copy operand to device: %w", err)
	}
	d.operands = append(d.operands, ptr)
	return gudaMatrix{ptr: ptr, rows: rows, cols: cols}, nil
}

func (d *gudaDevice) MatMul(a, b gudaMatrix) (gudaMatrix, error) {
	if a.cols != b.rows {
		return gudaMatrix{}, fmt.Errorf("shape mismatch: %dx%d * %dx%d", a.rows, a.cols, b.rows, b.cols)
	}
	bytes := a.rows * b.cols * float32Size
	c, err := guda.Malloc(bytes)
	if err != nil {
		return gudaMatrix{}, fmt.Errorf("malloc %d bytes: %w", bytes, err)
	}
	if err := guda.GEMM(false, false, a.rows, b.cols, a.cols,
		1, a.ptr, a.cols,
		b.ptr, b.cols,
		0, c, b.cols); err != nil {
		_ = guda.Free(c)
		return gudaMatrix{}, fmt.Errorf("gemm: %w", err)
	}
	if d.last != nil {
		_ = guda.Free(*d.last)
	}
	d.last = &c
	return gudaMatrix{ptr: c, rows: a.rows, cols: b.cols}, nil
}

func (d *gudaDevice) Sync() error {
	return guda.Synchronize()
}

func (d *gudaDevice) Close() error {
	var firstErr error
	free := func(p guda.DevicePtr) {
		if err := guda.Free(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.last != nil {
		free(*d.last)
		d.last = nil
	}
	for _, p := range d.operands {
		free(p)
	}
	d.operands = nil
	return firstErr
}

