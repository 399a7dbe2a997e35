// cmd/flopsbench/main.go
package main

import (
	cmd "github.com/mwiater/flopsbench/internal/commands"
)

// Populated by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = cmd.SetVersionInfo
	executeCmd     = cmd.Execute
)

// main hands the process to the cobra root command, which parses flags,
// runs the selected backend and exits with its status.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
