package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/flopsbench/internal/appconfig"
	"github.com/mwiater/flopsbench/internal/backend"
	"github.com/mwiater/flopsbench/internal/flops"
	"go.yaml.in/yaml/v3"
)

type countingDevice struct {
	matmuls *int
}

func (d countingDevice) Random(rows, cols int) (int, error) { return rows * cols, nil }
func (d countingDevice) MatMul(a, b int) (int, error) {
	*d.matmuls++
	time.Sleep(time.Microsecond)
	return a, nil
}
func (d countingDevice) Sync() error  { return nil }
func (d countingDevice) Close() error { return nil }

var testMatmuls int

func init() {
	backend.Register[int](backend.Info{
		Name:        "test-counting",
		Description: "counts multiplications",
		Kind:        backend.KindCPU,
	}, func(context.Context, uint64) (flops.Device[int], error) {
		return countingDevice{matmuls: &testMatmuls}, nil
	})
	backend.Register[int](backend.Info{
		Name:        "test-broken",
		Description: "fails to open",
		Kind:        backend.KindGPU,
	}, func(context.Context, uint64) (flops.Device[int], error) {
		return nil, errors.New("no adapter")
	})
}

var linePattern = regexp.MustCompile(`^Matrix size: (\d+)x(\d+), Time: \S+, GFLOPS: \d+\.\d{2}$`)

func TestFormatLine(t *testing.T) {
	r := Result{MatrixSize: 1024, Elapsed: 1500 * time.Millisecond, GFLOPS: 143.16557}
	got := FormatLine(r)
	want := "Matrix size: 1024x1024, Time: 1.5s, GFLOPS: 143.17"
	if got != want {
		t.Fatalf("FormatLine() = %q, want %q", got, want)
	}
	if !linePattern.MatchString(got) {
		t.Fatalf("line %q does not match template", got)
	}
}

func TestRunPrintsLine(t *testing.T) {
	testMatmuls = 0
	var buf bytes.Buffer
	cfg := appconfig.Config{MatrixSize: 8, RepeatTimes: 5, Backend: "test-counting"}

	result, err := Run(context.Background(), cfg, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if testMatmuls != 5 {
		t.Fatalf("expected 5 multiplications, got %d", testMatmuls)
	}
	if result.Backend != "test-counting" || result.Kind != "cpu" {
		t.Fatalf("unexpected result identity: %+v", result)
	}
	if result.FLOP != 2*8*8*8*5 {
		t.Fatalf("unexpected FLOP count %v", result.FLOP)
	}
	line := strings.TrimSpace(buf.String())
	if !linePattern.MatchString(line) {
		t.Fatalf("output %q does not match template", line)
	}
	if !strings.HasPrefix(line, "Matrix size: 8x8, ") {
		t.Fatalf("unexpected size in %q", line)
	}
}

func TestRunJSONMode(t *testing.T) {
	var buf bytes.Buffer
	cfg := appconfig.Config{MatrixSize: 4, RepeatTimes: 2, Backend: "test-counting", JSONMode: true, Seed: 5}
	if _, err := Run(context.Background(), cfg, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var decoded Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json output: %v\n%s", err, buf.String())
	}
	if decoded.MatrixSize != 4 || decoded.RepeatTimes != 2 || decoded.Seed != 5 {
		t.Fatalf("unexpected decoded result %+v", decoded)
	}
}

func TestRunErrors(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(context.Background(), appconfig.Config{MatrixSize: 4, RepeatTimes: 1, Backend: "nope"}, &buf)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}

	_, err = Run(context.Background(), appconfig.Config{MatrixSize: 4, RepeatTimes: 1, Backend: "test-broken"}, &buf)
	if err == nil || !strings.Contains(err.Error(), "no adapter") {
		t.Fatalf("expected open failure, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output on failure, got %q", buf.String())
	}
}

func TestRunExports(t *testing.T) {
	var exported string
	prev := writeResultsFn
	writeResultsFn = func(path string, r Result) error {
		exported = path
		return nil
	}
	t.Cleanup(func() { writeResultsFn = prev })

	cfg := appconfig.Config{MatrixSize: 4, RepeatTimes: 1, Backend: "test-counting", ExportPath: "out.json"}
	if _, err := Run(context.Background(), cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exported != "out.json" {
		t.Fatalf("expected export to out.json, got %q", exported)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Model:One":       "model_one",
		"  Model Two  ":   "model-two",
		"Model--Three!!":  "model-three",
		"__Mixed__Case__": "mixed__case",
		"cpu-1024-100":    "cpu-1024-100",
	}
	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Fatalf("Slugify(%q) = %q, want %q", input, got, expected)
		}
	}
}

func sampleResult() Result {
	return Result{
		Backend:     "cpu",
		Kind:        "cpu",
		MatrixSize:  64,
		RepeatTimes: 3,
		Elapsed:     20 * time.Millisecond,
		FLOP:        2 * 64 * 64 * 64 * 3,
		GFLOPS:      0.08,
	}
}

func TestWriteResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "run.json")
	if err := writeResults(path, sampleResult()); err != nil {
		t.Fatalf("writeResults: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var decoded Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if decoded.Backend != "cpu" || decoded.Elapsed != 20*time.Millisecond {
		t.Fatalf("unexpected decoded result %+v", decoded)
	}
}

func TestWriteResultsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := writeResults(path, sampleResult()); err != nil {
		t.Fatalf("writeResults: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid yaml output: %v", err)
	}
	if decoded["backend"] != "cpu" || decoded["matrixSize"] != 64 {
		t.Fatalf("unexpected decoded yaml %v", decoded)
	}
}

func TestWriteResultsIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := writeResults(dir, sampleResult()); err != nil {
		t.Fatalf("writeResults: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cpu-64-3.json")); err != nil {
		t.Fatalf("expected generated file name: %v", err)
	}
}
