// internal/benchmark/benchmark.go
package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mwiater/flopsbench/internal/appconfig"
	"github.com/mwiater/flopsbench/internal/backend"
	"github.com/mwiater/flopsbench/internal/flops"
	"github.com/mwiater/flopsbench/internal/logging"
	"go.yaml.in/yaml/v3"
)

// ErrUnknownBackend is returned when the configured backend is not compiled in.
var ErrUnknownBackend = errors.New("unknown backend")

var (
	lookupBackend  = backend.Lookup
	writeResultsFn = writeResults
	now            = time.Now
)

// Run executes the benchmark described by cfg, prints the result to w and
// exports it when cfg.ExportPath is set.
func Run(ctx context.Context, cfg appconfig.Config, w io.Writer) (Result, error) {
	b, ok := lookupBackend(cfg.Backend)
	if !ok {
		return Result{}, fmt.Errorf("%w %q (possible values: %s)", ErrUnknownBackend, cfg.Backend, strings.Join(backend.Names(), ", "))
	}

	logging.LogEvent("Running FLOPS test with matrix size %d and repeat times %d using backend %s", cfg.MatrixSize, cfg.RepeatTimes, b.Name)
	logging.LogEvent("Using %s backend (%s) for FLOPS test", b.Name, b.Kind)

	started := now()
	timing, err := b.Run(ctx, cfg.Params())
	if err != nil {
		return Result{}, fmt.Errorf("%s benchmark: %w", b.Name, err)
	}

	result := Result{
		Backend:     b.Name,
		Kind:        string(b.Kind),
		MatrixSize:  cfg.MatrixSize,
		RepeatTimes: cfg.RepeatTimes,
		Seed:        cfg.Seed,
		StartedAt:   started,
		Elapsed:     timing.Elapsed,
		FLOP:        flops.FLOP(cfg.MatrixSize, cfg.RepeatTimes),
		GFLOPS:      timing.GFLOPS,
	}
	logging.LogDebug("%s finished: elapsed=%s gflops=%.4f", b.Name, result.Elapsed, result.GFLOPS)

	if cfg.JSONMode {
		if err := writeJSON(w, result); err != nil {
			return result, fmt.Errorf("write result: %w", err)
		}
	} else if _, err := fmt.Fprintln(w, FormatLine(result)); err != nil {
		return result, fmt.Errorf("write result: %w", err)
	}

	if strings.TrimSpace(cfg.ExportPath) != "" {
		if err := writeResultsFn(cfg.ExportPath, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// FormatLine renders the one-line summary printed after a run.
func FormatLine(r Result) string {
	return fmt.Sprintf("Matrix size: %dx%d, Time: %s, GFLOPS: %.2f", r.MatrixSize, r.MatrixSize, r.Elapsed, r.GFLOPS)
}

func writeJSON(w io.Writer, r Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// writeResults writes r to path. A .yaml or .yml extension selects YAML,
// anything else JSON. An existing directory receives a generated file name.
func writeResults(path string, r Result) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ResultFileName(r))
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating results directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		encoder := yaml.NewEncoder(file)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("error writing results to file: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("error writing results to file: %w", err)
		}
	default:
		if err := writeJSON(file, r); err != nil {
			return fmt.Errorf("error writing results to file: %w", err)
		}
	}

	logging.LogEvent("Benchmark results written to %s", path)
	return nil
}

// ResultFileName derives a JSON file name from the run's backend and shape.
func ResultFileName(r Result) string {
	return Slugify(fmt.Sprintf("%s-%d-%d", r.Backend, r.MatrixSize, r.RepeatTimes)) + ".json"
}

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9_]+`)
	dashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string into a "slug" format,
// including replacing colons (:) with underscores (_).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	s = nonSlug.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")

	return s
}
