// internal/benchmark/types.go
package benchmark

import "time"

// Result holds the outcome of one benchmark run.
type Result struct {
	Backend     string        `json:"backend" yaml:"backend"`
	Kind        string        `json:"kind" yaml:"kind"`
	MatrixSize  int           `json:"matrixSize" yaml:"matrixSize"`
	RepeatTimes int           `json:"repeatTimes" yaml:"repeatTimes"`
	Seed        uint64        `json:"seed,omitempty" yaml:"seed,omitempty"`
	StartedAt   time.Time     `json:"startedAt" yaml:"startedAt"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
	FLOP        float64       `json:"flop" yaml:"flop"`
	GFLOPS      float64       `json:"gflops" yaml:"gflops"`
}
