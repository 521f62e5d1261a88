package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantAllowsExactPermission(t *testing.T) {
	s := New(true)
	s.Grant("u1", "plugin.echo.use")
	assert.True(t, s.Check("u1", "plugin.echo.use"))
	assert.False(t, s.Check("u1", "plugin.other.use"))
}

func TestWildcardGrantMatchesSubpaths(t *testing.T) {
	s := New(true)
	s.Grant("u1", "plugin.*.use")
	assert.True(t, s.Check("u1", "plugin.echo.use"))
	assert.False(t, s.Check("u1", "plugin.echo.use.extra"))
}

func TestDoubleStarWildcardMatchesSuffix(t *testing.T) {
	s := New(true)
	s.Grant("u1", "admin.**")
	assert.True(t, s.Check("u1", "admin.users.delete"))
	assert.True(t, s.Check("u1", "admin"))
}

func TestBlacklistWinsOverWhitelist(t *testing.T) {
	s := New(true)
	s.Grant("u1", "plugin.*")
	s.Ban("u1", "plugin.danger")
	assert.True(t, s.Check("u1", "plugin.safe"))
	assert.False(t, s.Check("u1", "plugin.danger"))
}

func TestDefaultClosedDeniesUnknownPermission(t *testing.T) {
	s := New(true)
	assert.False(t, s.Check("stranger", "anything"))
}

func TestRoleInheritanceGrantsTransitively(t *testing.T) {
	s := New(true)
	s.GrantRole("base", "core.ping")
	require.NoError(t, s.SetParent("admin", "base"))
	s.AssignRole("u1", "admin")
	assert.True(t, s.Check("u1", "core.ping"))
}

func TestSetParentRejectsCycle(t *testing.T) {
	s := New(true)
	require.NoError(t, s.SetParent("child", "parent"))
	err := s.SetParent("parent", "child")
	assert.Error(t, err)
}

func TestSetParentRejectsSelf(t *testing.T) {
	s := New(true)
	err := s.SetParent("role", "role")
	assert.Error(t, err)
}

func TestRevokeRemovesDirectGrant(t *testing.T) {
	s := New(true)
	s.Grant("u1", "a.b")
	s.Revoke("u1", "a.b")
	assert.False(t, s.Check("u1", "a.b"))
}

func TestRemoveRoleCascadesFromUsers(t *testing.T) {
	s := New(true)
	s.GrantRole("mod", "mod.kick")
	s.AssignRole("u1", "mod")
	require.True(t, s.Check("u1", "mod.kick"))

	s.RemoveRole("mod")
	assert.False(t, s.Check("u1", "mod.kick"))
}

func TestDefaultRoleAppliesWhenUnassigned(t *testing.T) {
	s := New(true)
	s.GrantRole("guest", "core.ping")
	s.SetDefaultRole("guest")
	assert.True(t, s.Check("newcomer", "core.ping"))
}

func TestCacheInvalidatedOnGrant(t *testing.T) {
	s := New(true)
	assert.False(t, s.Check("u1", "x.y"))
	s.Grant("u1", "x.y")
	assert.True(t, s.Check("u1", "x.y"))
}
