package flopsbench

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/mwiater/flopsbench/internal/backend"
	"github.com/spf13/cobra"
)

// backendsCmd implements 'list backends', which prints the backends compiled
// into this binary and the SIMD features of the host.
var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the compiled-in compute backends",
	Long:  `The 'backends' subcommand lists every backend accepted by --backend in this build, together with the SIMD extensions detected on the host.`,
	Run: func(cmd *cobra.Command, args []string) {
		listBackends(cmd.OutOrStdout(), backend.List(), backend.Features())
	},
}

func init() {
	listCmd.AddCommand(backendsCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func listBackends(out io.Writer, infos []backend.Info, features []backend.Feature) {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, string(info.Kind), info.Description})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("BACKEND", "KIND", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, t.Render())

	if len(features) == 0 {
		return
	}
	marks := make([]string, 0, len(features))
	for _, f := range features {
		if f.Supported {
			marks = append(marks, color.GreenString("+%s", f.Name))
		} else {
			marks = append(marks, color.RedString("-%s", f.Name))
		}
	}
	fmt.Fprintf(out, "Host SIMD: %s\n", strings.Join(marks, " "))
}
