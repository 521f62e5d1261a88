package builtin

import (
	"fmt"

	"context"

	"github.com/ncatbot/core/command"
	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/filter"
	"github.com/ncatbot/core/plugin"
)

// RBACAdminSymbol is the entry_class a host's manifest.toml declares to load
// this plugin.
const RBACAdminSymbol = "builtin.rbacadmin"

// RBACAdmin exposes a root-filtered chat command surface over rbac.Service's
// grant/revoke/role API (§EXT supplemented feature 4).
type RBACAdmin struct {
	pc *plugin.Context
}

// NewRBACAdmin is this plugin's Factory, registered at package init.
func NewRBACAdmin(_ *plugin.Manifest) plugin.Plugin {
	return &RBACAdmin{}
}

func init() {
	plugin.RegisterFactory(RBACAdminSymbol, NewRBACAdmin)
}

func (r *RBACAdmin) OnLoad(ctx context.Context, pc *plugin.Context) error {
	r.pc = pc

	userPermParams := []command.ParamSpec{
		{Name: "user", Kind: command.KindString, Required: true},
		{Name: "permission", Kind: command.KindString, Required: true},
	}
	userRoleParams := []command.ParamSpec{
		{Name: "user", Kind: command.KindString, Required: true},
		{Name: "role", Kind: command.KindString, Required: true},
	}

	pc.Commands.Register(&command.Spec{
		Path: []string{"rbac", "grant"}, Prefixes: []string{"/"},
		Parameters: userPermParams, Handler: r.handleGrant, Owner: "builtin.rbacadmin", Filter: filter.RootFilter,
	})
	pc.Commands.Register(&command.Spec{
		Path: []string{"rbac", "revoke"}, Prefixes: []string{"/"},
		Parameters: userPermParams, Handler: r.handleRevoke, Owner: "builtin.rbacadmin", Filter: filter.RootFilter,
	})
	pc.Commands.Register(&command.Spec{
		Path: []string{"rbac", "ban"}, Prefixes: []string{"/"},
		Parameters: userPermParams, Handler: r.handleBan, Owner: "builtin.rbacadmin", Filter: filter.RootFilter,
	})
	pc.Commands.Register(&command.Spec{
		Path: []string{"rbac", "assign"}, Prefixes: []string{"/"},
		Parameters: userRoleParams, Handler: r.handleAssign, Owner: "builtin.rbacadmin", Filter: filter.RootFilter,
	})
	return nil
}

func (r *RBACAdmin) OnClose(ctx context.Context) error { return nil }

func (r *RBACAdmin) handleGrant(hctx command.Context, args map[string]any) error {
	user, _ := args["user"].(string)
	perm, _ := args["permission"].(string)
	r.pc.RBAC.Grant(user, perm)
	return r.reply(hctx, fmt.Sprintf("granted %s to %s", perm, user))
}

func (r *RBACAdmin) handleRevoke(hctx command.Context, args map[string]any) error {
	user, _ := args["user"].(string)
	perm, _ := args["permission"].(string)
	r.pc.RBAC.Revoke(user, perm)
	return r.reply(hctx, fmt.Sprintf("revoked %s from %s", perm, user))
}

func (r *RBACAdmin) handleBan(hctx command.Context, args map[string]any) error {
	user, _ := args["user"].(string)
	perm, _ := args["permission"].(string)
	r.pc.RBAC.Ban(user, perm)
	return r.reply(hctx, fmt.Sprintf("banned %s for %s", perm, user))
}

func (r *RBACAdmin) handleAssign(hctx command.Context, args map[string]any) error {
	user, _ := args["user"].(string)
	role, _ := args["role"].(string)
	r.pc.RBAC.AssignRole(user, role)
	return r.reply(hctx, fmt.Sprintf("assigned role %s to %s", role, user))
}

func (r *RBACAdmin) reply(hctx command.Context, text string) error {
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
