// Package api is the typed facade plugins call to act on the gateway: it
// wraps transport.Router.Send with the OneBot action surface (§6.1) and
// implements event.Replier so dispatcher-produced events can reply to
// themselves without importing transport directly.
package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/transport"
	"github.com/ncatbot/core/wire"
)

// DefaultTimeout bounds a Send call lacking an explicit deadline (§4.2).
const DefaultTimeout = 15 * time.Second

// API wraps a live router with the gateway's named actions. The zero value
// is not usable; construct with New.
type API struct {
	router *transport.Router
}

// New builds an API bound to router.
func New(router *transport.Router) *API {
	return &API{router: router}
}

// Send implements event.Replier: issues action with params and waits for the
// matching echo under DefaultTimeout.
func (a *API) Send(action string, params any) (*wire.ResponseFrame, error) {
	return a.router.Send(context.Background(), action, params, DefaultTimeout)
}

// SendContext is Send with a caller-supplied context and timeout, for
// callers that need cancellation or a non-default deadline.
func (a *API) SendContext(ctx context.Context, action string, params any, timeout time.Duration) (*wire.ResponseFrame, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return a.router.Send(ctx, action, params, timeout)
}

// SendGroupMsg sends a message array to a group.
func (a *API) SendGroupMsg(groupID string, msg wire.MessageArray) (*wire.ResponseFrame, error) {
	return a.Send("send_group_msg", map[string]any{"group_id": groupID, "message": msg})
}

// SendPrivateMsg sends a message array to a user.
func (a *API) SendPrivateMsg(userID string, msg wire.MessageArray) (*wire.ResponseFrame, error) {
	return a.Send("send_private_msg", map[string]any{"user_id": userID, "message": msg})
}

// DeleteMsg recalls a previously sent message.
func (a *API) DeleteMsg(messageID string) (*wire.ResponseFrame, error) {
	return a.Send("delete_msg", map[string]any{"message_id": messageID})
}

// SetGroupBan mutes userID in groupID for duration seconds (0 lifts the ban).
func (a *API) SetGroupBan(groupID, userID string, duration int64) (*wire.ResponseFrame, error) {
	return a.Send("set_group_ban", map[string]any{
		"group_id": groupID, "user_id": userID, "duration": duration,
	})
}

// SetGroupKick removes userID from groupID.
func (a *API) SetGroupKick(groupID, userID string, rejectAddRequest bool) (*wire.ResponseFrame, error) {
	return a.Send("set_group_kick", map[string]any{
		"group_id": groupID, "user_id": userID, "reject_add_request": rejectAddRequest,
	})
}

// GetLoginInfo reports the bot's own account.
func (a *API) GetLoginInfo() (userID, nickname string, err error) {
	resp, err := a.Send("get_login_info", nil)
	if err != nil {
		return "", "", err
	}
	if err := resp.Err(); err != nil {
		return "", "", err
	}
	var data struct {
		UserID   json.Number `json:"user_id"`
		Nickname string      `json:"nickname"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", "", errors.Wrap(err, "decoding get_login_info response")
	}
	return data.UserID.String(), data.Nickname, nil
}

// GetGroupMemberInfo fetches a single member's role/card/nickname. The
// built-in GroupAdmin/GroupOwner filters do not call it; they read the role
// from the message's own sender block.
func (a *API) GetGroupMemberInfo(groupID, userID string, noCache bool) (role, card, nickname string, err error) {
	resp, err := a.Send("get_group_member_info", map[string]any{
		"group_id": groupID, "user_id": userID, "no_cache": noCache,
	})
	if err != nil {
		return "", "", "", err
	}
	if err := resp.Err(); err != nil {
		return "", "", "", err
	}
	var data struct {
		Role     string `json:"role"`
		Card     string `json:"card"`
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", "", "", errors.Wrap(err, "decoding get_group_member_info response")
	}
	return data.Role, data.Card, data.Nickname, nil
}
