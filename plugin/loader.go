// Package plugin implements the plugin loader and lifecycle manager (§4.5):
// discovery of manifest.toml-declared plugins, topological dependency
// resolution with semver range validation, and the full
// Discovered->Resolved->Instantiated->Initialized->Running->Closing->Unloaded
// lifecycle.
package plugin

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/ncatbot/core/api"
	"github.com/ncatbot/core/command"
	"github.com/ncatbot/core/config"
	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/eventbus"
	"github.com/ncatbot/core/logger"
	"github.com/ncatbot/core/rbac"
	"github.com/ncatbot/core/service"
)

// Loader scans a plugin directory and drives every plugin through its
// lifecycle, wiring each instance to the shared bus/command/RBAC/scheduler
// handles.
type Loader struct {
	PluginDir     string
	WorkspaceRoot string
	DataDir       string
	Debug         bool
	Whitelist     []string // plugin names; empty = allow all
	Blacklist     []string

	Bus       *eventbus.Bus
	Commands  *command.Registry
	RBAC      *rbac.Service
	Scheduler *service.Scheduler
	API       *api.API
	System    *service.SystemService

	mu          sync.Mutex
	descriptors map[string]*Descriptor
	instances   map[string]*Instance
	order       []string         // dependency-satisfying load order
	failed      map[string]error // plugins excluded by Resolve, by name
}

// NewLoader builds a loader rooted at pluginDir, wiring instances to the
// supplied shared handles.
func NewLoader(pluginDir, workspaceRoot, dataDir string, bus *eventbus.Bus, commands *command.Registry, rbacSvc *rbac.Service, scheduler *service.Scheduler, apiHandle *api.API, system *service.SystemService) *Loader {
	return &Loader{
		PluginDir:     pluginDir,
		WorkspaceRoot: workspaceRoot,
		DataDir:       dataDir,
		Bus:           bus,
		Commands:      commands,
		RBAC:          rbacSvc,
		Scheduler:     scheduler,
		API:           apiHandle,
		System:        system,
		descriptors:   make(map[string]*Descriptor),
		instances:     make(map[string]*Instance),
	}
}

// Discover scans PluginDir for subdirectories containing manifest.toml,
// applying the whitelist/blacklist (§4.5 Discovery).
func (l *Loader) Discover() ([]*Descriptor, error) {
	entries, err := os.ReadDir(l.PluginDir)
	if err != nil {
		return nil, errors.ConfigError(err, "reading plugin directory %s", l.PluginDir)
	}

	var found []*Descriptor
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(l.PluginDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
			continue
		}
		desc, err := NewDescriptor(dir, l.WorkspaceRoot)
		if err != nil {
			logger.PluginWarnw("skipping plugin candidate with invalid manifest", "dir", dir, "err", err)
			continue
		}
		if !l.allowed(desc.Name) {
			logger.PluginInfow("plugin excluded by whitelist/blacklist", "plugin", desc.Name)
			continue
		}
		found = append(found, desc)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })

	l.mu.Lock()
	for _, d := range found {
		l.descriptors[d.Name] = d
	}
	l.mu.Unlock()
	return found, nil
}

func (l *Loader) allowed(name string) bool {
	if len(l.Blacklist) > 0 {
		for _, b := range l.Blacklist {
			if b == name {
				return false
			}
		}
	}
	if len(l.Whitelist) == 0 {
		return true
	}
	for _, w := range l.Whitelist {
		if w == name {
			return true
		}
	}
	return false
}

// Resolve builds the dependency DAG over the discovered descriptors,
// computes a topological load order, and validates every dependency range
// against the installed version (§4.5 Resolution). A plugin whose
// dependency is missing, declares an invalid range, fails to satisfy its
// declared range, or sits on a dependency cycle is marked StateFailed and
// excluded from the returned load order along with every plugin that
// (transitively) depends on it; plugins outside that failure's dependency
// chain resolve and load normally (§7 "fatal for that plugin, other plugins
// continue if they do not depend on it"; §8 S4). Resolve itself only
// returns an error for conditions outside any single plugin's control; a
// failed dependency is not such a condition, so callers must consult
// Failed() to learn which plugins were excluded and why.
func (l *Loader) Resolve() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.descriptors))
	for name := range l.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := map[string]error{}

	for _, name := range names {
		desc := l.descriptors[name]
		for depName, rangeStr := range desc.Dependencies {
			dep, ok := l.descriptors[depName]
			if !ok {
				failed[name] = errors.DependencyError(errors.Newf("dependency %q not found", depName), "resolving plugin %s", name)
				break
			}
			constraint, err := semver.NewConstraint(rangeStr)
			if err != nil {
				failed[name] = errors.DependencyError(err, "plugin %s declares invalid version range %q for %s", name, rangeStr, depName)
				break
			}
			if !constraint.Check(dep.Version) {
				failed[name] = errors.DependencyError(
					errors.Newf("installed %s@%s does not satisfy %s", depName, dep.Version, rangeStr),
					"resolving plugin %s", name,
				)
				break
			}
		}
	}

	visited := map[string]int{} // 0 unvisited, 1 in-progress, 2 done
	var order []string
	var visit func(name string) bool // true if name resolved cleanly
	visit = func(name string) bool {
		if _, already := failed[name]; already {
			return false
		}
		switch visited[name] {
		case 2:
			return true
		case 1:
			failed[name] = errors.DependencyError(errors.Newf("dependency cycle detected at %q", name), "resolving plugin dependencies")
			return false
		}
		visited[name] = 1
		desc := l.descriptors[name]
		deps := make([]string, 0, len(desc.Dependencies))
		for dep := range desc.Dependencies {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		ok := true
		for _, dep := range deps {
			// A dep absent from l.descriptors was already caught for name
			// in the version-validation pass above, which short-circuits
			// this function before reaching here; visit only ever sees
			// deps that resolve to a real descriptor.
			if !visit(dep) {
				ok = false
			}
		}
		visited[name] = 2
		if !ok {
			if _, already := failed[name]; !already {
				failed[name] = errors.DependencyError(errors.Newf("a dependency of plugin %s failed to resolve", name), "resolving plugin %s", name)
			}
			return false
		}
		desc.State = StateResolved
		order = append(order, name)
		return true
	}

	for _, name := range names {
		visit(name)
	}

	for name, err := range failed {
		desc := l.descriptors[name]
		desc.State = StateFailed
		desc.FailReason = err
		logger.PluginWarnw("plugin excluded from load: dependency resolution failed", "plugin", name, "err", err)
	}

	l.order = order
	l.failed = failed
	return order, nil
}

// Failed returns the name -> reason map of plugins Resolve excluded from
// the load order, for callers (CLI summaries, tests) that need to report
// why a particular plugin didn't come up.
func (l *Loader) Failed() map[string]error {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]error, len(l.failed))
	for k, v := range l.failed {
		out[k] = v
	}
	return out
}

// Instantiate constructs each plugin in dependency order via its registered
// Factory (§4.5 Instantiation). Construction performs no blocking IO.
func (l *Loader) Instantiate() error {
	l.mu.Lock()
	order := append([]string(nil), l.order...)
	l.mu.Unlock()

	for _, name := range order {
		l.mu.Lock()
		desc := l.descriptors[name]
		l.mu.Unlock()

		factory, err := lookupFactory(desc.EntrySymbol)
		if err != nil {
			return err
		}
		p := factory(desc.Manifest)
		desc.State = StateInstantiated

		l.mu.Lock()
		l.instances[name] = &Instance{Descriptor: desc, Plugin: p}
		l.mu.Unlock()
	}
	return nil
}

// Initialize creates each plugin's workspace directory, loads its persisted
// config, and awaits its OnLoad hook, in dependency order (§4.5
// Initialization). A plugin's OnLoad begins only after every dependency's
// OnLoad has returned.
func (l *Loader) Initialize(ctx context.Context) error {
	l.mu.Lock()
	order := append([]string(nil), l.order...)
	l.mu.Unlock()

	for _, name := range order {
		l.mu.Lock()
		inst := l.instances[name]
		l.mu.Unlock()
		if err := l.initOne(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) initOne(ctx context.Context, inst *Instance) error {
	desc := inst.Descriptor
	if err := os.MkdirAll(desc.WorkspaceDir, 0o755); err != nil {
		return errors.LifecycleError(err, "creating workspace for plugin %s", desc.Name)
	}

	if cfgAware, ok := inst.Plugin.(ConfigurablePlugin); ok {
		if err := config.LoadPluginConfig(inst.configPath(l.DataDir), cfgAware.ConfigPointer()); err != nil {
			return errors.LifecycleError(err, "loading config for plugin %s", desc.Name)
		}
	}

	desc.State = StateInitialized

	pc := &Context{
		Bus:       l.Bus,
		Commands:  l.Commands,
		RBAC:      l.RBAC,
		Scheduler: l.Scheduler,
		API:       l.API,
		Loader:    l,
		System:    l.System,
		Debug:     l.Debug,
		Manifest:  desc.Manifest,
		Workspace: desc.WorkspaceDir,
	}

	if err := inst.Plugin.OnLoad(ctx, pc); err != nil {
		l.Bus.UnsubscribeOwner(desc.Name)
		l.Scheduler.CancelOwner(desc.Name)
		l.Commands.UnregisterOwner(desc.Name)
		l.mu.Lock()
		delete(l.instances, desc.Name)
		l.mu.Unlock()
		desc.State = StateUnloaded
		return errors.LifecycleError(err, "plugin %s failed on_load", desc.Name)
	}
	desc.State = StateRunning
	logger.PluginInfow("plugin loaded", "plugin", desc.Name, "version", desc.Version)
	return nil
}

// LoadAll runs Discover, Resolve, Instantiate, and Initialize in sequence,
// the full bring-up path for a fresh start. Plugins Resolve excludes (see
// Failed) are simply absent from the order Instantiate/Initialize walk;
// they do not fail this call.
func (l *Loader) LoadAll(ctx context.Context) error {
	if _, err := l.Discover(); err != nil {
		return err
	}
	if _, err := l.Resolve(); err != nil {
		return err
	}
	if err := l.Instantiate(); err != nil {
		return err
	}
	return l.Initialize(ctx)
}

// Unload tears down a single plugin: its bus subscriptions, scheduled tasks,
// and commands are unregistered, its OnClose hook is awaited, and its config
// persisted (§4.5 Unload). Failures during OnClose are logged, not returned,
// so unloading the rest of the set is never blocked by one plugin.
func (l *Loader) Unload(ctx context.Context, name string) {
	l.mu.Lock()
	inst, ok := l.instances[name]
	l.mu.Unlock()
	if !ok {
		return
	}
	desc := inst.Descriptor
	desc.State = StateClosing

	l.Bus.UnsubscribeOwner(name)
	l.Scheduler.CancelOwner(name)
	l.Commands.UnregisterOwner(name)

	if err := inst.Plugin.OnClose(ctx); err != nil {
		logger.PluginErrorw("plugin failed to close cleanly", "plugin", name, "err", err)
	}

	if cfgAware, ok := inst.Plugin.(ConfigurablePlugin); ok {
		if err := config.SavePluginConfig(inst.configPath(l.DataDir), cfgAware.ConfigPointer()); err != nil {
			logger.PluginErrorw("failed to persist plugin config", "plugin", name, "err", err)
		}
	}

	desc.State = StateUnloaded
	l.mu.Lock()
	delete(l.instances, name)
	l.mu.Unlock()
	logger.PluginInfow("plugin unloaded", "plugin", name)
}

// UnloadAll unloads every loaded plugin in reverse dependency order.
func (l *Loader) UnloadAll(ctx context.Context) {
	l.mu.Lock()
	order := append([]string(nil), l.order...)
	l.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		l.Unload(ctx, order[i])
	}
}

// Reload unloads then reloads a single plugin, preserving its persisted
// config across the cycle (§4.5 Reload). The command index is rebuilt
// lazily on next dispatch once new registrations replace old ones.
func (l *Loader) Reload(ctx context.Context, name string) error {
	l.mu.Lock()
	desc, ok := l.descriptors[name]
	l.mu.Unlock()
	if !ok {
		return errors.Newf("plugin %q is not known to this loader", name)
	}

	l.Unload(ctx, name)

	factory, err := lookupFactory(desc.EntrySymbol)
	if err != nil {
		return err
	}
	inst := &Instance{Descriptor: desc, Plugin: factory(desc.Manifest)}
	desc.State = StateInstantiated

	l.mu.Lock()
	l.instances[name] = inst
	l.mu.Unlock()

	return l.initOne(ctx, inst)
}

// Instance returns the live instance for name, if loaded.
func (l *Loader) Instance(name string) (*Instance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst, ok := l.instances[name]
	return inst, ok
}

// Loaded returns the names of every currently-loaded plugin, sorted.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.instances))
	for name := range l.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns every discovered descriptor, sorted by name.
func (l *Loader) Descriptors() []*Descriptor {
	l.mu.Lock()
	defer l.mu.Unlock()
	descs := make([]*Descriptor, 0, len(l.descriptors))
	for _, d := range l.descriptors {
		descs = append(descs, d)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs
}
