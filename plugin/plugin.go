package plugin

import (
	"context"
	"sync"

	"github.com/ncatbot/core/api"
	"github.com/ncatbot/core/command"
	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/eventbus"
	"github.com/ncatbot/core/rbac"
	"github.com/ncatbot/core/service"
)

// State is a plugin's position in the §3.3 lifecycle.
type State string

const (
	StateDiscovered   State = "discovered"
	StateResolved     State = "resolved"
	StateInstantiated State = "instantiated"
	StateInitialized  State = "initialized"
	StateRunning      State = "running"
	StateClosing      State = "closing"
	StateUnloaded     State = "unloaded"
	// StateFailed marks a descriptor excluded from the load order by
	// Resolve: a missing/invalid/unsatisfied dependency, or membership in a
	// dependency cycle (§4.5 Resolution, §7 "fatal for that plugin, other
	// plugins continue if they do not depend on it").
	StateFailed State = "failed"
)

// Context is what a plugin receives in OnLoad: the injected
// event-bus/service-manager handles, debug flag, manifest metadata, and
// workspace path. The Factory that constructs the plugin receives only the
// manifest, not these handles. It replaces the source's
// runtime-attribute-injection pattern with an explicit value (§9).
type Context struct {
	Bus       *eventbus.Bus
	Commands  *command.Registry
	RBAC      *rbac.Service
	Scheduler *service.Scheduler
	API       *api.API
	Loader    *Loader
	System    *service.SystemService
	Debug     bool
	Manifest  *Manifest
	Workspace string
}

// Plugin is the interface every plugin entry point implements. OnLoad/OnClose
// are the lifecycle hooks awaited during Initialization and Unload.
type Plugin interface {
	OnLoad(ctx context.Context, pc *Context) error
	OnClose(ctx context.Context) error
}

// ConfigurablePlugin is an optional interface for plugins that persist a
// config document across restarts (§6.3 "Plugin configs"). ConfigPointer
// returns the destination struct pointer the loader decodes the plugin's
// YAML config into before OnLoad, and encodes from after OnClose.
type ConfigurablePlugin interface {
	Plugin
	ConfigPointer() any
}

// Factory constructs a plugin instance from its parsed manifest. Entry
// points register a Factory under a symbol name at package init time,
// replacing the source's dynamic import + class lookup (§9 "Reflection-based
// function -> plugin owner resolution").
type Factory func(m *Manifest) Plugin

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{}
)

// RegisterFactory binds symbol (a manifest's entry_class, or its name when
// entry_class is unset) to factory. Call from a plugin package's init().
func RegisterFactory(symbol string, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[symbol] = factory
}

func lookupFactory(symbol string) (Factory, error) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factories[symbol]
	if !ok {
		return nil, errors.DependencyError(errors.Newf("no factory registered for %q", symbol), "resolving plugin entry point")
	}
	return f, nil
}

// entrySymbol is the factory key a manifest resolves to: entry_class when
// set, otherwise the plugin's own name (§4.5 Instantiation).
func entrySymbol(m *Manifest) string {
	if m.EntryClass != "" {
		return m.EntryClass
	}
	return m.Name
}
