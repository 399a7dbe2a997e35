// internal/appconfig/appconfig.go
// Package appconfig holds the merged benchmark configuration and validates it.
package appconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/mwiater/flopsbench/internal/flops"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultConfigPath is where the root command looks for a config file.
	DefaultConfigPath = "config/config.json"
	// DefaultMatrixSize is the edge length of the square operands.
	DefaultMatrixSize = 1024
	// DefaultRepeatTimes is the number of timed multiplications.
	DefaultRepeatTimes = 100
	// EnvPrefix prefixes environment overrides, e.g. FLOPSBENCH_DEBUG.
	EnvPrefix = "FLOPSBENCH"
)

// Config represents the merged application configuration
// (flags > environment > config file > defaults).
type Config struct {
	MatrixSize  int    `json:"matrixSize" mapstructure:"matrixSize" yaml:"matrixSize"`
	RepeatTimes int    `json:"repeatTimes" mapstructure:"repeatTimes" yaml:"repeatTimes"`
	Backend     string `json:"backend" mapstructure:"backend" yaml:"backend"`
	Seed        uint64 `json:"seed,omitempty" mapstructure:"seed" yaml:"seed,omitempty"`
	Debug       bool   `json:"debug" mapstructure:"debug" yaml:"debug"`
	JSONMode    bool   `json:"jsonMode" mapstructure:"jsonMode" yaml:"jsonMode"`
	ExportPath  string `json:"export,omitempty" mapstructure:"export" yaml:"export,omitempty"`
	LogFile     string `json:"logFile,omitempty" mapstructure:"logFile" yaml:"logFile,omitempty"`
	ConfigPath  string `json:"-" mapstructure:"-" yaml:"-"`
}

// Default returns the configuration used when neither flags nor a file set a value.
func Default() Config {
	return Config{
		MatrixSize:  DefaultMatrixSize,
		RepeatTimes: DefaultRepeatTimes,
	}
}

// Params converts the configuration into benchmark parameters.
func (c Config) Params() flops.Params {
	return flops.Params{
		MatrixSize:  c.MatrixSize,
		RepeatTimes: c.RepeatTimes,
		Seed:        c.Seed,
	}
}

// LogFilePath returns the log file path, or "" to log to the console only.
func (c Config) LogFilePath() string {
	return strings.TrimSpace(c.LogFile)
}

// schema builds the JSON Schema for Config with the backend restricted to backends.
func schema(backends []string) map[string]any {
	enum := make([]any, 0, len(backends))
	for _, b := range backends {
		enum = append(enum, b)
	}
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			"matrixSize":  map[string]any{"type": "integer", "minimum": 1},
			"repeatTimes": map[string]any{"type": "integer", "minimum": 1},
			"backend":     map[string]any{"type": "string", "enum": enum},
			"seed":        map[string]any{"type": "integer", "minimum": 0},
			"debug":       map[string]any{"type": "boolean"},
			"jsonMode":    map[string]any{"type": "boolean"},
			"export":      map[string]any{"type": "string"},
			"logFile":     map[string]any{"type": "string"},
		},
		"required": []any{"matrixSize", "repeatTimes"},
	}
}

// document renders c the way the schema expects; an unset backend is omitted.
func (c Config) document() map[string]any {
	doc := map[string]any{
		"matrixSize":  c.MatrixSize,
		"repeatTimes": c.RepeatTimes,
		"seed":        c.Seed,
		"debug":       c.Debug,
		"jsonMode":    c.JSONMode,
		"export":      c.ExportPath,
		"logFile":     c.LogFile,
	}
	if c.Backend != "" {
		doc["backend"] = c.Backend
	}
	return doc
}

// Validate checks c against the configuration schema. backends lists the
// compiled-in backend names accepted for Backend.
func Validate(c Config, backends []string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema(backends)),
		gojsonschema.NewGoLoader(c.document()),
	)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// ShowConfig writes a human-readable summary of cfg to w.
func ShowConfig(w io.Writer, configFile string, cfg Config) {
	if configFile == "" {
		fmt.Fprintln(w, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(w, "Config file: %s\n\n", configFile)
	}

	backend := cfg.Backend
	if backend == "" {
		backend = "(not set)"
	}
	logFile := cfg.LogFilePath()
	if logFile == "" {
		logFile = "(console only)"
	}
	seed := "time based"
	if cfg.Seed != 0 {
		seed = fmt.Sprintf("%d", cfg.Seed)
	}

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintf(w, "  Matrix Size:     %d\n", cfg.MatrixSize)
	fmt.Fprintf(w, "  Repeat Times:    %d\n", cfg.RepeatTimes)
	fmt.Fprintf(w, "  Backend:         %s\n", backend)
	fmt.Fprintf(w, "  Seed:            %s\n", seed)
	fmt.Fprintf(w, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(w, "  JSON Mode:       %v\n", cfg.JSONMode)
	fmt.Fprintf(w, "  Export:          %s\n", cfg.ExportPath)
	fmt.Fprintf(w, "  Log File:        %s\n", logFile)
}
