package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/rbac"
)

func TestGroupFilterAcceptsOnlyGroupMessages(t *testing.T) {
	assert.True(t, GroupFilter(&event.GroupMessage{}, UserContext{}))
	assert.False(t, GroupFilter(&event.PrivateMessage{}, UserContext{}))
}

func TestPrivateFilterAcceptsOnlyPrivateMessages(t *testing.T) {
	assert.True(t, PrivateFilter(&event.PrivateMessage{}, UserContext{}))
	assert.False(t, PrivateFilter(&event.GroupMessage{}, UserContext{}))
}

func TestRootFilterChecksRBACRole(t *testing.T) {
	svc := rbac.New(true)
	svc.AssignRole("owner123", "root")

	assert.True(t, RootFilter(nil, UserContext{UserID: "owner123", RBAC: svc}))
	assert.False(t, RootFilter(nil, UserContext{UserID: "stranger", RBAC: svc}))
}

func TestRootFilterFalseWithoutRBAC(t *testing.T) {
	assert.False(t, RootFilter(nil, UserContext{UserID: "owner123"}))
}

func TestGroupAdminFilterInfersFromSenderBlock(t *testing.T) {
	admin := &event.GroupMessage{Sender: event.Sender{Role: "admin"}}
	member := &event.GroupMessage{Sender: event.Sender{Role: "member"}}
	assert.True(t, GroupAdminFilter(admin, UserContext{}))
	assert.False(t, GroupAdminFilter(member, UserContext{}))
}

func TestGroupOwnerFilterRequiresOwnerRole(t *testing.T) {
	owner := &event.GroupMessage{Sender: event.Sender{Role: "owner"}}
	admin := &event.GroupMessage{Sender: event.Sender{Role: "admin"}}
	assert.True(t, GroupOwnerFilter(owner, UserContext{}))
	assert.False(t, GroupOwnerFilter(admin, UserContext{}))
}

func TestAndRequiresAllFiltersToPass(t *testing.T) {
	always := func(any, UserContext) bool { return true }
	never := func(any, UserContext) bool { return false }
	assert.True(t, And(always, always)(nil, UserContext{}))
	assert.False(t, And(always, never)(nil, UserContext{}))
}

func TestOrRequiresAnyFilterToPass(t *testing.T) {
	always := func(any, UserContext) bool { return true }
	never := func(any, UserContext) bool { return false }
	assert.True(t, Or(never, always)(nil, UserContext{}))
	assert.False(t, Or(never, never)(nil, UserContext{}))
}

func TestNotNegatesFilter(t *testing.T) {
	always := func(any, UserContext) bool { return true }
	assert.False(t, Not(always)(nil, UserContext{}))
}
