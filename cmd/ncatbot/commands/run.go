package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ncatbot/core/config"
	"github.com/ncatbot/core/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start ncatbot in front mode (blocks until interrupted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		app, err := buildApp(cfg)
		if err != nil {
			return err
		}

		return service.RunFront(func(ctx context.Context, markReady func()) error {
			printBanner(cfg)
			if err := app.Start(ctx); err != nil {
				return err
			}
			printPluginTable(app)
			markReady()

			<-ctx.Done()
			pterm.Info.Println("shutting down")
			app.Shutdown(context.Background())
			return nil
		})
	},
}
