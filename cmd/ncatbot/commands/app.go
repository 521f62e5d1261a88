// Package commands wires the framework's components into the two run-mode
// subcommands (§4.11, §6.4), mirroring the teacher's cmd/qntx/commands
// per-verb file layout.
package commands

import (
	"context"
	"net/http"

	"github.com/ncatbot/core/api"
	"github.com/ncatbot/core/command"
	"github.com/ncatbot/core/config"
	"github.com/ncatbot/core/dispatcher"
	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/eventbus"
	"github.com/ncatbot/core/plugin"
	_ "github.com/ncatbot/core/plugin/builtin"
	"github.com/ncatbot/core/rbac"
	"github.com/ncatbot/core/service"
	"github.com/ncatbot/core/transport"
)

// App holds every long-lived component the CLI wires together, assembled by
// buildApp and driven by the run/start subcommands.
type App struct {
	Config    *config.BotConfig
	Bus       *eventbus.Bus
	Commands  *command.Registry
	RBAC      *rbac.Service
	Services  *service.Manager
	Scheduler *service.Scheduler
	System    *service.SystemService
	Loader    *plugin.Loader

	router *transport.Router
	disp   *dispatcher.Dispatcher
	api    *api.API
}

// buildApp constructs every component short of the live gateway connection,
// which dial() opens once the caller is ready to run.
func buildApp(cfg *config.BotConfig) (*App, error) {
	bus := eventbus.New(50, 100)
	commands := command.NewRegistry()
	rbacSvc := rbac.New(true)
	scheduler := service.NewScheduler(bus)
	system := service.NewSystemService()

	services := service.NewManager()
	services.Register(scheduler)
	services.Register(system)

	disp := dispatcher.New(bus, nil)

	engine := command.New(commands, bus, rbacSvc)
	if err := engine.Attach(); err != nil {
		return nil, errors.Wrap(err, "attaching command engine")
	}

	loader := plugin.NewLoader(cfg.PluginDir, cfg.DataDir+"/workspace", cfg.DataDir, bus, commands, rbacSvc, scheduler, nil, system)

	return &App{
		Config:    cfg,
		Bus:       bus,
		Commands:  commands,
		RBAC:      rbacSvc,
		Services:  services,
		Scheduler: scheduler,
		System:    system,
		Loader:    loader,
		disp:      disp,
	}, nil
}

// dial opens the gateway connection, binds the API facade onto the
// dispatcher and loader, and starts the router's read loop on a background
// goroutine. Returns once the connection is live, not once the loop exits.
func (a *App) dial(ctx context.Context) error {
	conn, err := transport.Dial(a.Config.Napcat.WSURI, a.Config.Napcat.WSToken, http.Header{})
	if err != nil {
		return err
	}

	a.router = transport.New(conn, a.disp.HandleFrame)
	a.api = api.New(a.router)
	a.disp.BindAPI(a.api)
	a.Loader.API = a.api

	go func() {
		if err := a.router.Run(ctx); err != nil {
			_ = err // the run loop logs its own terminal errors
		}
	}()
	return nil
}

// Start brings up services and plugins after the gateway connection is
// live.
func (a *App) Start(ctx context.Context) error {
	if err := a.dial(ctx); err != nil {
		return errors.ConnectionError(err, "starting application")
	}
	if err := a.Services.LoadAll(ctx); err != nil {
		return err
	}
	return a.Loader.LoadAll(ctx)
}

// Shutdown tears down plugins then services in reverse order.
func (a *App) Shutdown(ctx context.Context) {
	a.Loader.UnloadAll(ctx)
	a.Services.CloseAll(ctx)
	if a.router != nil {
		_ = a.router.Close()
	}
}
