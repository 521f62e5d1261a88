package commands

import (
	"github.com/spf13/cobra"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

var configPath string

// RootCmd is the ncatbot CLI's root command.
var RootCmd = &cobra.Command{
	Use:   "ncatbot",
	Short: "ncatbot core - OneBot gateway plugin framework",
	Long: `ncatbot core mediates between a OneBot-compatible WebSocket gateway
and a set of user plugins: it routes gateway events, dispatches command-style
plugin handlers, and exposes a request/response API for outbound actions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(false); err != nil {
			return errors.Wrap(err, "initializing logger")
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the bot config document")
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(startCmd)
}
