// internal/flops/flops.go
// Package flops times repeated square matrix products on a device and
// converts the elapsed wall-clock time into GFLOPS.
package flops

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidParams is returned when the matrix size or repeat count is not positive.
var ErrInvalidParams = errors.New("matrix size and repeat times must be positive")

// now is swapped in tests to control the measured duration.
var now = time.Now

// Device is the operand-typed surface a backend exposes to the benchmark.
// M is whatever the backend library uses to hold a matrix.
type Device[M any] interface {
	// Random returns a rows x cols matrix with uniform [0,1) entries.
	Random(rows, cols int) (M, error)
	// MatMul returns a*b.
	MatMul(a, b M) (M, error)
	// Sync blocks until queued device work has finished.
	Sync() error
	// Close releases device resources.
	Close() error
}

// Params describes one benchmark run.
type Params struct {
	MatrixSize  int
	RepeatTimes int
	Seed        uint64
}

// Validate reports ErrInvalidParams when size or repeat count is not positive.
func (p Params) Validate() error {
	if p.MatrixSize <= 0 || p.RepeatTimes <= 0 {
		return fmt.Errorf("%w (matrix size %d, repeat times %d)", ErrInvalidParams, p.MatrixSize, p.RepeatTimes)
	}
	return nil
}

// Timing is the outcome of a single measurement.
type Timing struct {
	Elapsed time.Duration
	GFLOPS  float64
}

// Measure allocates two random square matrices on dev, multiplies them
// p.RepeatTimes times and reports the wall-clock time of the loop.
// Only the loop is timed; operand generation is excluded.
func Measure[M any](ctx context.Context, dev Device[M], p Params) (Timing, error) {
	if err := p.Validate(); err != nil {
		return Timing{}, err
	}

	a, err := dev.Random(p.MatrixSize, p.MatrixSize)
	if err != nil {
		return Timing{}, fmt.Errorf("allocate lhs: %w", err)
	}
	b, err := dev.Random(p.MatrixSize, p.MatrixSize)
	if err != nil {
		return Timing{}, fmt.Errorf("allocate rhs: %w", err)
	}
	if err := dev.Sync(); err != nil {
		return Timing{}, fmt.Errorf("sync before loop: %w", err)
	}

	start := now()
	for i := 0; i < p.RepeatTimes; i++ {
		if err := ctx.Err(); err != nil {
			return Timing{}, fmt.Errorf("interrupted after %d of %d iterations: %w", i, p.RepeatTimes, err)
		}
		if _, err := dev.MatMul(a, b); err != nil {
			return Timing{}, fmt.Errorf("matmul iteration %d: %w", i+1, err)
		}
	}
	if err := dev.Sync(); err != nil {
		return Timing{}, fmt.Errorf("sync after loop: %w", err)
	}
	elapsed := now().Sub(start)

	return Timing{
		Elapsed: elapsed,
		GFLOPS:  GFLOPS(p.MatrixSize, p.RepeatTimes, elapsed),
	}, nil
}

// FLOP returns the floating-point operation count of repeat size x size
// products, counting one multiply and one add per inner-product term.
func FLOP(size, repeat int) float64 {
	n := float64(size)
	return 2 * n * n * n * float64(repeat)
}

// GFLOPS converts an operation count over elapsed into billions of
// operations per second. A non-positive elapsed yields 0.
func GFLOPS(size, repeat int, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return FLOP(size, repeat) / secs / 1e9
}
