// internal/commands/list_commands.go
package flopsbench

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// commandsCmd implements 'list commands', which prints every runnable
// command path with its short description.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands",
	Long:  `The 'commands' subcommand walks the command tree and prints each command path next to its short description. Help and shell completion commands are omitted.`,
	Run: func(cmd *cobra.Command, args []string) {
		listCommands(cmd.OutOrStdout(), walkCommands(rootCmd))
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
}

// walkCommands returns c and its visible descendants in depth-first order
// as {path, short} rows.
func walkCommands(c *cobra.Command) [][]string {
	rows := [][]string{{c.CommandPath(), c.Short}}
	for _, sub := range c.Commands() {
		if !sub.IsAvailableCommand() || sub.Name() == "completion" {
			continue
		}
		rows = append(rows, walkCommands(sub)...)
	}
	return rows
}

func listCommands(out io.Writer, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("COMMAND", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, "Commands and Subcommands:")
	fmt.Fprintln(out, t.Render())
}
