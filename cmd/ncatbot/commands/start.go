package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ncatbot/core/config"
	"github.com/ncatbot/core/service"
)

var startTimeout time.Duration

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start ncatbot in back mode (returns once startup settles)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}

		printBanner(cfg)
		handle, err := service.RunBack(startTimeout).Start(func(ctx context.Context, markReady func()) error {
			if err := app.Start(ctx); err != nil {
				return err
			}
			markReady()
			<-ctx.Done()
			app.Shutdown(context.Background())
			return nil
		})
		if err != nil {
			return err
		}

		printPluginTable(app)
		pterm.Success.Println("ncatbot started in back mode")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		handle.Cancel()
		<-handle.Err
		return nil
	},
}

func init() {
	startCmd.Flags().DurationVar(&startTimeout, "timeout", service.DefaultStartupTimeout, "startup readiness timeout")
}
