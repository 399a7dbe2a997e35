package flopsbench

import (
	"github.com/mwiater/flopsbench/internal/appconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the config file is loaded properly and overridden by environment and flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := appconfig.Default()
		if c := GetConfig(); c != nil {
			cfg = *c
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), cfg)
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
