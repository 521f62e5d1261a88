package plugin

import "github.com/ncatbot/core/config"

// Instance is a loaded descriptor plus its live plugin object (§3.1 "Plugin
// instance"). Owned subscription ids, scheduled-task names, and command
// paths are not tracked here individually: the bus, scheduler, and command
// registry each index their entries by owner name directly, so unload is a
// single UnregisterOwner/UnsubscribeOwner/CancelOwner call keyed on
// Descriptor.Name (§4.5 Unload).
type Instance struct {
	Descriptor *Descriptor
	Plugin     Plugin
}

// configPath is this instance's persisted config document path (§6.3).
func (inst *Instance) configPath(dataDir string) string {
	return config.PluginConfigPath(dataDir, inst.Descriptor.Name)
}
