package backend

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/LynnColeArt/guda"
	"github.com/mwiater/flopsbench/internal/flops"
	"gonum.org/v1/gonum/blas/blas32"
	"gorgonia.org/tensor"
)

func TestDefaultBackendsRegistered(t *testing.T) {
	names := Names()
	for _, want := range []string{"cpu", "guda", "highway", "ndarray"} {
		if _, ok := Lookup(want); !ok {
			t.Fatalf("expected backend %q to be compiled in, have %v", want, names)
		}
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("expected sorted names, got %v", names)
		}
	}
	infos := List()
	if len(infos) != len(names) {
		t.Fatalf("List() returned %d entries, Names() %d", len(infos), len(names))
	}
	for _, info := range infos {
		if info.Description == "" || info.Kind == "" {
			t.Fatalf("backend %q missing description or kind", info.Name)
		}
	}
}

func TestBackendKinds(t *testing.T) {
	want := map[string]Kind{
		"cpu":     KindCPU,
		"ndarray": KindVector,
		"highway": KindVector,
		"guda":    KindCPU,
	}
	for name, kind := range want {
		b, ok := Lookup(name)
		if !ok {
			t.Fatalf("backend %q not registered", name)
		}
		if b.Kind != kind {
			t.Errorf("backend %q kind = %s, want %s", name, b.Kind, kind)
		}
	}
	if b, _ := Lookup("guda"); !strings.Contains(b.Description, "CPU-emulated") {
		t.Errorf("guda description should say it runs on the host, got %q", b.Description)
	}
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register[blas32.General](Info{Name: "cpu"}, openCPU)
}

func TestRegisterPanicsOnEmptyName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty name")
		}
	}()
	Register[blas32.General](Info{Name: "  "}, openCPU)
}

func TestSelector(t *testing.T) {
	var s Selector
	if s.Type() != "backend" {
		t.Fatalf("unexpected type %q", s.Type())
	}
	if err := s.Set("CPU"); err != nil {
		t.Fatalf("Set(CPU): %v", err)
	}
	if s.String() != "cpu" {
		t.Fatalf("expected normalized name, got %q", s.String())
	}
	err := s.Set("metal")
	if err == nil {
		t.Fatal("expected unknown backend to be rejected")
	}
	if !strings.Contains(err.Error(), "possible values") || !strings.Contains(err.Error(), "cpu") {
		t.Fatalf("expected possible values in error, got %v", err)
	}
	if s.String() != "cpu" {
		t.Fatalf("rejected value must not replace selection, got %q", s.String())
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	b, _ := Lookup("cpu")
	if _, err := b.Run(context.Background(), flops.Params{MatrixSize: 0, RepeatTimes: 1}); !errors.Is(err, flops.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestRunCPUBackends(t *testing.T) {
	for _, name := range []string{"cpu", "ndarray", "highway", "guda"} {
		t.Run(name, func(t *testing.T) {
			b, ok := Lookup(name)
			if !ok {
				t.Fatalf("backend %s not registered", name)
			}
			timing, err := b.Run(context.Background(), flops.Params{MatrixSize: 16, RepeatTimes: 3, Seed: 7})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if timing.Elapsed <= 0 {
				t.Fatalf("expected positive elapsed, got %v", timing.Elapsed)
			}
			if timing.GFLOPS <= 0 {
				t.Fatalf("expected positive GFLOPS, got %v", timing.GFLOPS)
			}
		})
	}
}

func TestUniformSource(t *testing.T) {
	a := newUniformSource(42).float32s(256)
	b := newUniformSource(42).float32s(256)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different values at %d", i)
		}
		if a[i] < 0 || a[i] >= 1 {
			t.Fatalf("value %v outside [0,1)", a[i])
		}
	}
}

// reference computes the row-major product of n x n matrices.
func reference(a, b []float32, n int) []float32 {
	c := make([]float32, n*n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			aik := a[i*n+k]
			for j := 0; j < n; j++ {
				c[i*n+j] += aik * b[k*n+j]
			}
		}
	}
	return c
}

func assertClose(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-4 {
			t.Fatalf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

const productSize = 9

func TestCPUProduct(t *testing.T) {
	dev, _ := openCPU(context.Background(), 3)
	a, _ := dev.Random(productSize, productSize)
	b, _ := dev.Random(productSize, productSize)
	c, err := dev.MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	assertClose(t, c.Data, reference(a.Data, b.Data, productSize))
}

func TestNDArrayProduct(t *testing.T) {
	dev, _ := openNDArray(context.Background(), 3)
	a, _ := dev.Random(productSize, productSize)
	b, _ := dev.Random(productSize, productSize)
	c, err := dev.MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	if got := c.Shape(); !got.Eq(tensor.Shape{productSize, productSize}) {
		t.Fatalf("unexpected shape %v", got)
	}
	assertClose(t, c.Data().([]float32), reference(a.Data().([]float32), b.Data().([]float32), productSize))
}

func TestHighwayProduct(t *testing.T) {
	dev, _ := openHighway(context.Background(), 3)
	a, _ := dev.Random(productSize, productSize)
	b, _ := dev.Random(productSize, productSize)
	c, err := dev.MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	assertClose(t, c.data, reference(a.data, b.data, productSize))

	if _, err := dev.MatMul(a, rowMajor{rows: 2, cols: 2, data: make([]float32, 4)}); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func gudaToHost(t *testing.T, m gudaMatrix) []float32 {
	t.Helper()
	out := make([]float32, m.rows*m.cols)
	if err := guda.Memcpy(out, m.ptr, len(out)*float32Size, guda.MemcpyDeviceToHost); err != nil {
		t.Fatalf("copy to host: %v", err)
	}
	return out
}

func TestGUDAProduct(t *testing.T) {
	dev, err := openGUDA(context.Background(), 3)
	if err != nil {
		t.Fatalf("openGUDA: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })

	a, _ := dev.Random(productSize, productSize)
	b, _ := dev.Random(productSize, productSize)
	c, err := dev.MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	if err := dev.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	assertClose(t, gudaToHost(t, c), reference(gudaToHost(t, a), gudaToHost(t, b), productSize))
}

func TestFeaturesNamed(t *testing.T) {
	for _, f := range Features() {
		if f.Name == "" {
			t.Fatal("feature without name")
		}
	}
}
