// Package builtin holds the framework's own built-in plugins, loaded the
// same way as any user plugin (§EXT supplemented feature 2).
package builtin

import (
	"context"
	"fmt"

	"github.com/ncatbot/core/command"
	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/filter"
	"github.com/ncatbot/core/plugin"
)

// SysManagerSymbol is the entry_class a host's manifest.toml should declare
// to load this plugin.
const SysManagerSymbol = "builtin.sysmanager"

// SysManager exposes root-only commands for listing, reloading, and
// unloading plugins at runtime, and reports host CPU/memory via the
// SystemService (§EXT supplemented feature 2, grounded on
// original_source's plugin_system/builtin_plugin/system_manager.py).
type SysManager struct {
	pc *plugin.Context
}

// NewSysManager is this plugin's Factory, registered at package init.
func NewSysManager(_ *plugin.Manifest) plugin.Plugin {
	return &SysManager{}
}

func init() {
	plugin.RegisterFactory(SysManagerSymbol, NewSysManager)
}

// OnLoad registers the plugin/system command surface.
func (s *SysManager) OnLoad(ctx context.Context, pc *plugin.Context) error {
	s.pc = pc

	pc.Commands.Register(&command.Spec{
		Path:     []string{"plugin", "list"},
		Prefixes: []string{"/"},
		Handler:  s.handleList,
		Owner:    "builtin.sysmanager",
		Filter:   filter.RootFilter,
	})
	pc.Commands.Register(&command.Spec{
		Path:     []string{"plugin", "reload"},
		Prefixes: []string{"/"},
		Parameters: []command.ParamSpec{
			{Name: "name", Kind: command.KindString, Required: true},
		},
		Handler: s.handleReload,
		Owner:   "builtin.sysmanager",
		Filter:  filter.RootFilter,
	})
	pc.Commands.Register(&command.Spec{
		Path:     []string{"plugin", "unload"},
		Prefixes: []string{"/"},
		Parameters: []command.ParamSpec{
			{Name: "name", Kind: command.KindString, Required: true},
		},
		Handler: s.handleUnload,
		Owner:   "builtin.sysmanager",
		Filter:  filter.RootFilter,
	})
	pc.Commands.Register(&command.Spec{
		Path:     []string{"system", "status"},
		Prefixes: []string{"/"},
		Handler:  s.handleStatus,
		Owner:    "builtin.sysmanager",
		Filter:   filter.RootFilter,
	})
	return nil
}

// OnClose is a no-op: command/subscription cleanup is handled by the
// loader's owner-keyed unregistration.
func (s *SysManager) OnClose(ctx context.Context) error { return nil }

func (s *SysManager) handleList(hctx command.Context, _ map[string]any) error {
	if s.pc.Loader == nil {
		return s.reply(hctx, "no plugin loader attached")
	}
	names := s.pc.Loader.Loaded()
	if len(names) == 0 {
		return s.reply(hctx, "no plugins loaded")
	}
	msg := "loaded plugins:"
	for _, n := range names {
		msg += "\n- " + n
	}
	return s.reply(hctx, msg)
}

func (s *SysManager) handleReload(hctx command.Context, args map[string]any) error {
	name, _ := args["name"].(string)
	if s.pc.Loader == nil {
		return s.reply(hctx, "no plugin loader attached")
	}
	if err := s.pc.Loader.Reload(context.Background(), name); err != nil {
		return s.reply(hctx, fmt.Sprintf("reload %s failed: %v", name, err))
	}
	return s.reply(hctx, fmt.Sprintf("reloaded %s", name))
}

func (s *SysManager) handleUnload(hctx command.Context, args map[string]any) error {
	name, _ := args["name"].(string)
	if s.pc.Loader == nil {
		return s.reply(hctx, "no plugin loader attached")
	}
	s.pc.Loader.Unload(context.Background(), name)
	return s.reply(hctx, fmt.Sprintf("unloaded %s", name))
}

func (s *SysManager) handleStatus(hctx command.Context, _ map[string]any) error {
	if s.pc.System == nil {
		return s.reply(hctx, "system service not attached")
	}
	stats, err := s.pc.System.Snapshot()
	if err != nil {
		return s.reply(hctx, fmt.Sprintf("failed to read system stats: %v", err))
	}
	return s.reply(hctx, fmt.Sprintf(
		"cpu %.1f%%, mem %.1f%% (%d/%d MB)",
		stats.CPUPercent, stats.MemPercent, stats.MemUsed/1024/1024, stats.MemTotal/1024/1024,
	))
}

func (s *SysManager) reply(hctx command.Context, text string) error {
	switch e := hctx.Event.(type) {
	case *event.GroupMessage:
		_, err := e.ReplyText(text)
		return err
	case *event.PrivateMessage:
		_, err := e.ReplyText(text)
		return err
	default:
		return nil
	}
}
