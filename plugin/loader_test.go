package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncatbot/core/command"
	"github.com/ncatbot/core/eventbus"
	"github.com/ncatbot/core/rbac"
	"github.com/ncatbot/core/service"
)

type recordingPlugin struct {
	name     string
	loaded   bool
	closed   bool
	loadErr  error
}

func (p *recordingPlugin) OnLoad(ctx context.Context, pc *Context) error {
	if p.loadErr != nil {
		return p.loadErr
	}
	p.loaded = true
	return nil
}

func (p *recordingPlugin) OnClose(ctx context.Context) error {
	p.closed = true
	return nil
}

func newTestLoader(t *testing.T, pluginDir string) *Loader {
	t.Helper()
	bus := eventbus.New(0, 0)
	return NewLoader(
		pluginDir, t.TempDir(), t.TempDir(),
		bus, command.NewRegistry(), rbac.New(true), service.NewScheduler(bus), nil, service.NewSystemService(),
	)
}

func makePluginDir(t *testing.T, root, name, version string, deps map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	body := "name = \"" + name + "\"\nversion = \"" + version + "\"\nentry_class = \"test." + name + "\"\n"
	if len(deps) > 0 {
		body += "[dependencies]\n"
		for dep, rng := range deps {
			body += dep + " = \"" + rng + "\"\n"
		}
	}
	writeManifest(t, dir, body)
	return dir
}

func TestLoaderDiscoversPluginsWithManifests(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "echo", "1.0.0", nil)

	l := newTestLoader(t, root)
	descs, err := l.Discover()
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "echo", descs[0].Name)
}

func TestLoaderDiscoverAppliesBlacklist(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "echo", "1.0.0", nil)
	makePluginDir(t, root, "danger", "1.0.0", nil)

	l := newTestLoader(t, root)
	l.Blacklist = []string{"danger"}
	descs, err := l.Discover()
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "echo", descs[0].Name)
}

func TestLoaderResolveOrdersByDependency(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "base", "1.0.0", nil)
	makePluginDir(t, root, "extra", "1.0.0", map[string]string{"base": ">=1.0.0"})

	l := newTestLoader(t, root)
	_, err := l.Discover()
	require.NoError(t, err)

	order, err := l.Resolve()
	require.NoError(t, err)
	require.Equal(t, []string{"base", "extra"}, order)
}

// TestLoaderResolveSkipsUnsatisfiedRangeButLoadsIndependentPlugin matches
// §8 S4: a plugin with an unsatisfied dependency range fails resolution,
// but that failure never touches a plugin outside its dependency chain.
func TestLoaderResolveSkipsUnsatisfiedRangeButLoadsIndependentPlugin(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "base", "1.0.0", nil)
	makePluginDir(t, root, "extra", "1.0.0", map[string]string{"base": ">=2.0.0"})

	l := newTestLoader(t, root)
	_, err := l.Discover()
	require.NoError(t, err)

	order, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, order)

	failed := l.Failed()
	assert.Error(t, failed["extra"])
	assert.NotContains(t, failed, "base")

	baseInst := &recordingPlugin{name: "base"}
	RegisterFactory("test.base", func(m *Manifest) Plugin { return baseInst })
	extraInst := &recordingPlugin{name: "extra"}
	RegisterFactory("test.extra", func(m *Manifest) Plugin { return extraInst })

	require.NoError(t, l.Instantiate())
	require.NoError(t, l.Initialize(context.Background()))

	assert.True(t, baseInst.loaded)
	assert.False(t, extraInst.loaded)
	assert.Equal(t, []string{"base"}, l.Loaded())
}

// TestLoaderResolveSkipsMissingDependencyButLoadsIndependentPlugin matches
// §7: a dependency error is fatal only for the plugin that declares it.
func TestLoaderResolveSkipsMissingDependencyButLoadsIndependentPlugin(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "base", "1.0.0", nil)
	makePluginDir(t, root, "extra", "1.0.0", map[string]string{"absent": ">=1.0.0"})

	l := newTestLoader(t, root)
	_, err := l.Discover()
	require.NoError(t, err)

	order, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, order)

	failed := l.Failed()
	assert.Error(t, failed["extra"])
	assert.NotContains(t, failed, "base")
}

// TestLoaderResolveSkipsTransitiveDependents asserts that a plugin
// depending (even indirectly) on a failed plugin is excluded too, while a
// plugin with no relation to the failure is unaffected.
func TestLoaderResolveSkipsTransitiveDependents(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "independent", "1.0.0", nil)
	makePluginDir(t, root, "extra", "1.0.0", map[string]string{"absent": ">=1.0.0"})
	makePluginDir(t, root, "dependent", "1.0.0", map[string]string{"extra": ">=1.0.0"})

	l := newTestLoader(t, root)
	_, err := l.Discover()
	require.NoError(t, err)

	order, err := l.Resolve()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"independent"}, order)

	failed := l.Failed()
	assert.Error(t, failed["extra"])
	assert.Error(t, failed["dependent"])
	assert.NotContains(t, failed, "independent")
}

// TestLoaderResolveSkipsDependencyCycle asserts that a cycle fails only its
// own members, not the rest of the discovered set.
func TestLoaderResolveSkipsDependencyCycle(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "independent", "1.0.0", nil)
	makePluginDir(t, root, "cyclic-a", "1.0.0", map[string]string{"cyclic-b": ">=1.0.0"})
	makePluginDir(t, root, "cyclic-b", "1.0.0", map[string]string{"cyclic-a": ">=1.0.0"})

	l := newTestLoader(t, root)
	_, err := l.Discover()
	require.NoError(t, err)

	order, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"independent"}, order)

	failed := l.Failed()
	assert.Error(t, failed["cyclic-a"])
	assert.Error(t, failed["cyclic-b"])
	assert.NotContains(t, failed, "independent")
}

func TestLoaderLoadAllInstantiatesAndInitializes(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "greeter", "1.0.0", nil)

	inst := &recordingPlugin{name: "greeter"}
	RegisterFactory("test.greeter", func(m *Manifest) Plugin { return inst })

	l := newTestLoader(t, root)
	require.NoError(t, l.LoadAll(context.Background()))

	assert.True(t, inst.loaded)
	assert.Equal(t, []string{"greeter"}, l.Loaded())

	loadedInst, ok := l.Instance("greeter")
	require.True(t, ok)
	assert.Equal(t, StateRunning, loadedInst.Descriptor.State)
}

func TestLoaderUnloadCallsOnCloseAndClearsInstance(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "closer", "1.0.0", nil)

	inst := &recordingPlugin{name: "closer"}
	RegisterFactory("test.closer", func(m *Manifest) Plugin { return inst })

	l := newTestLoader(t, root)
	require.NoError(t, l.LoadAll(context.Background()))

	l.Unload(context.Background(), "closer")
	assert.True(t, inst.closed)
	_, ok := l.Instance("closer")
	assert.False(t, ok)
}

func TestLoaderUnknownFactorySymbolErrors(t *testing.T) {
	root := t.TempDir()
	makePluginDir(t, root, "ghost", "1.0.0", nil)

	l := newTestLoader(t, root)
	err := l.LoadAll(context.Background())
	assert.Error(t, err)
}
