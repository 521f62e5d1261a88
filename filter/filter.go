// Package filter implements the composable predicate chains checked before
// a command handler (or subscribed handler) is invoked (§4.10).
package filter

import (
	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/rbac"
)

// UserContext carries the information a filter needs beyond the raw event:
// the resolved permission-check subject.
type UserContext struct {
	UserID string
	RBAC   *rbac.Service
}

// Filter is a predicate over (event, user context); a deny short-circuits
// dispatch before the parameter binder runs.
type Filter func(evt any, uc UserContext) bool

// And composes filters so all must allow.
func And(filters ...Filter) Filter {
	return func(evt any, uc UserContext) bool {
		for _, f := range filters {
			if !f(evt, uc) {
				return false
			}
		}
		return true
	}
}

// Or composes filters so any allows.
func Or(filters ...Filter) Filter {
	return func(evt any, uc UserContext) bool {
		for _, f := range filters {
			if f(evt, uc) {
				return true
			}
		}
		return false
	}
}

// Not negates a filter.
func Not(f Filter) Filter {
	return func(evt any, uc UserContext) bool { return !f(evt, uc) }
}

// CustomFilter wraps an arbitrary user predicate as a Filter.
func CustomFilter(fn func(evt any, uc UserContext) bool) Filter { return Filter(fn) }

// GroupFilter accepts group messages only.
func GroupFilter(evt any, _ UserContext) bool {
	_, ok := evt.(*event.GroupMessage)
	return ok
}

// PrivateFilter accepts private messages only.
func PrivateFilter(evt any, _ UserContext) bool {
	_, ok := evt.(*event.PrivateMessage)
	return ok
}

// AdminFilter accepts only users holding the "admin" role (via RBAC).
func AdminFilter(_ any, uc UserContext) bool {
	return hasRole(uc, "admin")
}

// RootFilter accepts only users holding the "root" role (via RBAC).
func RootFilter(_ any, uc UserContext) bool {
	return hasRole(uc, "root")
}

func hasRole(uc UserContext, role string) bool {
	if uc.RBAC == nil {
		return false
	}
	for _, r := range uc.RBAC.EnsureUser(uc.UserID).Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// GroupAdminFilter accepts group messages whose sender block reports the
// "admin" (or "owner") role, inferred directly from the message rather than
// RBAC (§4.10: "role inferred from the message's sender block").
func GroupAdminFilter(evt any, _ UserContext) bool {
	gm, ok := evt.(*event.GroupMessage)
	if !ok {
		return false
	}
	return gm.Sender.Role == "admin" || gm.Sender.Role == "owner"
}

// GroupOwnerFilter accepts group messages whose sender block reports the
// "owner" role.
func GroupOwnerFilter(evt any, _ UserContext) bool {
	gm, ok := evt.(*event.GroupMessage)
	if !ok {
		return false
	}
	return gm.Sender.Role == "owner"
}
