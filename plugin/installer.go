package plugin

import (
	"context"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

// Installer fetches a plugin bundle from a git/http/local source into a
// loader's plugin directory ahead of Discovery (§EXT supplemented feature
// 3), replacing the teacher's gRPC-loader fetch path with go-getter's
// detector chain.
type Installer struct {
	PluginDir string
}

// NewInstaller builds an installer targeting pluginDir.
func NewInstaller(pluginDir string) *Installer {
	return &Installer{PluginDir: pluginDir}
}

// Install downloads src (any go-getter-recognized URL: git::, http(s)://, a
// bare local path, …) into <PluginDir>/<name>, ready for Discover to pick up
// on the next scan. name becomes the destination subdirectory, independent
// of whatever directory name the source archive unpacks to.
func (in *Installer) Install(ctx context.Context, name, src string) error {
	dst := filepath.Join(in.PluginDir, name)
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeDir,
	}
	if err := client.Get(); err != nil {
		return errors.ConfigError(err, "installing plugin %s from %s", name, src)
	}
	logger.PluginInfow("plugin installed", "plugin", name, "source", src, "dest", dst)
	return nil
}
