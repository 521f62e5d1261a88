package commands

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/ncatbot/core/config"
)

// printBanner prints the startup banner, grounded on the teacher's
// cmd/qntx/commands/banner.go pterm usage.
func printBanner(cfg *config.BotConfig) {
	pterm.DefaultBigText.WithLetters(putils.LettersFromStringWithStyle("ncatbot", pterm.NewStyle(pterm.FgCyan))).Render()
	pterm.Info.Printfln("bot uin: %s", cfg.BtUin)
	pterm.Info.Printfln("gateway: %s", cfg.Napcat.WSURI)
	pterm.Info.Printfln("plugins: %s", cfg.PluginDir)
}

// printPluginTable renders the plugin-load summary table after Start
// completes (§6.4 ambient CLI).
func printPluginTable(app *App) {
	rows := pterm.TableData{{"plugin", "version", "state"}}
	for _, desc := range app.Loader.Descriptors() {
		rows = append(rows, []string{desc.Name, desc.Version.String(), string(desc.State)})
	}
	if len(rows) == 1 {
		pterm.Info.Println("no plugins discovered")
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
