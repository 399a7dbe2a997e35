// internal/backend/backend.go
// Package backend holds the compiled-in set of compute backends and
// dispatches a benchmark run to the generic routine in package flops,
// instantiated for the chosen backend's operand type.
//
// Each backend registers itself from an init function; build tags decide
// which files, and therefore which backends, are part of a binary.
package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mwiater/flopsbench/internal/flops"
)

// Kind groups backends by the class of hardware they execute on.
type Kind string

const (
	KindCPU    Kind = "cpu"
	KindVector Kind = "vector"
	KindGPU    Kind = "gpu"
)

// Info describes a registered backend.
type Info struct {
	Name        string
	Description string
	Kind        Kind
}

// Opener creates a device for one run. seed feeds the operand generator.
type Opener[M any] func(ctx context.Context, seed uint64) (flops.Device[M], error)

// Backend is a registered, runnable backend.
type Backend struct {
	Info
	run func(ctx context.Context, p flops.Params) (flops.Timing, error)
}

// Run opens the backend's device, measures p on it and closes the device.
func (b Backend) Run(ctx context.Context, p flops.Params) (flops.Timing, error) {
	return b.run(ctx, p)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Backend)
)

// Register adds a backend to the compiled-in set. It panics if the name is
// empty or already registered.
func Register[M any](info Info, open Opener[M]) {
	name := strings.TrimSpace(info.Name)
	if name == "" {
		panic("backend: Register with empty name")
	}
	if open == nil {
		panic("backend: Register " + name + " with nil opener")
	}
	info.Name = name

	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[name]; dup {
		panic("backend: Register called twice for " + name)
	}
	registry[name] = Backend{
		Info: info,
		run: func(ctx context.Context, p flops.Params) (timing flops.Timing, err error) {
			if err := p.Validate(); err != nil {
				return flops.Timing{}, err
			}
			dev, err := open(ctx, p.Seed)
			if err != nil {
				return flops.Timing{}, fmt.Errorf("open %s device: %w", name, err)
			}
			defer func() {
				if cerr := dev.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("close %s device: %w", name, cerr)
				}
			}()
			return flops.Measure[M](ctx, dev, p)
		},
	}
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := registry[name]
	return b, ok
}

// Names returns the sorted names of all compiled-in backends.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the info of all compiled-in backends sorted by name.
func List() []Info {
	names := Names()
	mu.RLock()
	defer mu.RUnlock()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, registry[name].Info)
	}
	return infos
}
