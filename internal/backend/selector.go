package backend

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Selector is a pflag.Value restricted to the compiled-in backend names.
type Selector struct {
	name string
}

var _ pflag.Value = (*Selector)(nil)

// String returns the selected backend name, or "" when none is set.
func (s *Selector) String() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Set accepts a compiled-in backend name (case-insensitive) and rejects anything else.
func (s *Selector) Set(value string) error {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		s.name = ""
		return nil
	}
	if _, ok := Lookup(name); !ok {
		return fmt.Errorf("invalid backend %q (possible values: %s)", value, strings.Join(Names(), ", "))
	}
	s.name = name
	return nil
}

// Type names the flag value in usage output.
func (s *Selector) Type() string { return "backend" }
