// Package event defines the typed domain events produced by the dispatcher
// and carried over the event bus, plus the sender/notice/request payload
// shapes that round-trip the OneBot event taxonomy (§6.1).
package event

import (
	"time"

	"github.com/ncatbot/core/wire"
)

// Type is the event-bus topic string a typed event publishes under, e.g.
// "ncatbot.group_message_event".
type Type string

const (
	TypeGroupMessage   Type = "ncatbot.group_message_event"
	TypePrivateMessage Type = "ncatbot.private_message_event"
	TypeMessageSent    Type = "ncatbot.message_sent_event"
	TypeNotice         Type = "ncatbot.notice_event"
	TypeRequest        Type = "ncatbot.request_event"
	TypeMeta           Type = "ncatbot.meta_event"

	// TypeParamBindFailed is published by the command engine (not the
	// dispatcher) when the binder cannot satisfy a command's parameters.
	TypeParamBindFailed Type = "ncatbot.param_bind_failed"

	// TypeTimeTaskExecuted is published after a scheduled task runs.
	TypeTimeTaskExecuted Type = "ncatbot.time_task_executed"
)

// Sender describes the sender block carried on message events. Role is
// populated for group messages ("owner", "admin", "member").
type Sender struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Replier is the narrow capability a message event needs to implement
// Reply/ReplyText without depending on the full API facade package (which
// would create an import cycle: api depends on event for typed replies).
type Replier interface {
	Send(action string, params any) (*wire.ResponseFrame, error)
}

// Base carries the fields common to every event.
type Base struct {
	PostType Type      `json:"-"`
	SelfID   string    `json:"self_id"`
	Time     time.Time `json:"-"`
	RawTime  int64     `json:"time"`
}

func (b Base) Type() Type { return b.PostType }

// GroupMessage is a message event with message_type=group.
type GroupMessage struct {
	Base
	MessageID string           `json:"message_id"`
	GroupID   string           `json:"group_id"`
	UserID    string           `json:"user_id"`
	Sender    Sender           `json:"sender"`
	Message   wire.MessageArray `json:"message"`
	RawText   string           `json:"raw_message"`

	api Replier
}

// BindAPI attaches the live API handle so handlers can call event.Reply.
// Called by the dispatcher before publish; never touched by plugins.
func (m *GroupMessage) BindAPI(api Replier) { m.api = api }

// Reply sends a message array back to the originating group.
func (m *GroupMessage) Reply(msg wire.MessageArray) (*wire.ResponseFrame, error) {
	if m.api == nil {
		return nil, nil
	}
	return m.api.Send("send_group_msg", map[string]any{
		"group_id": m.GroupID,
		"message":  msg,
	})
}

// ReplyText is a convenience wrapper building a single text segment.
func (m *GroupMessage) ReplyText(text string) (*wire.ResponseFrame, error) {
	return m.Reply(wire.MessageArray{wire.NewText(text)})
}

// PrivateMessage is a message event with message_type=private.
type PrivateMessage struct {
	Base
	MessageID string           `json:"message_id"`
	UserID    string           `json:"user_id"`
	Sender    Sender           `json:"sender"`
	Message   wire.MessageArray `json:"message"`
	RawText   string           `json:"raw_message"`

	api Replier
}

func (m *PrivateMessage) BindAPI(api Replier) { m.api = api }

func (m *PrivateMessage) Reply(msg wire.MessageArray) (*wire.ResponseFrame, error) {
	if m.api == nil {
		return nil, nil
	}
	return m.api.Send("send_private_msg", map[string]any{
		"user_id": m.UserID,
		"message": msg,
	})
}

func (m *PrivateMessage) ReplyText(text string) (*wire.ResponseFrame, error) {
	return m.Reply(wire.MessageArray{wire.NewText(text)})
}

// MessageSent is an echo of a message the bot itself sent (message_sent_type=self).
type MessageSent struct {
	Base
	TargetID string           `json:"target_id"`
	RealSeq  string           `json:"real_seq"`
	Message  wire.MessageArray `json:"message"`
	RawText  string           `json:"raw_message"`
}

// Notice carries a notice_event of any notice_type (§6.1 table). Fields not
// relevant to a given sub-type are left zero.
type Notice struct {
	Base
	NoticeType  string `json:"notice_type"`
	SubType     string `json:"sub_type,omitempty"`
	GroupID     string `json:"group_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	OperatorID  string `json:"operator_id,omitempty"`
	Duration    int64  `json:"duration,omitempty"`
	File        string `json:"file,omitempty"`
	HonorType   string `json:"honor_type,omitempty"`
	EmojiLikeID string `json:"emoji_like_id,omitempty"`
	RawInfo     any    `json:"raw_info,omitempty"`
}

// Request carries a request_event (friend or group request).
type Request struct {
	Base
	RequestType string `json:"request_type"`
	SubType     string `json:"sub_type,omitempty"`
	GroupID     string `json:"group_id,omitempty"`
	UserID      string `json:"user_id"`
	Comment     string `json:"comment"`
	Flag        string `json:"flag"`

	api Replier
}

func (r *Request) BindAPI(api Replier) { r.api = api }

// Approve approves a friend or group request via the referenced flag.
func (r *Request) Approve() (*wire.ResponseFrame, error) {
	return r.setApproval(true, "")
}

// Reject declines a friend or group request, optionally with a reason.
func (r *Request) Reject(reason string) (*wire.ResponseFrame, error) {
	return r.setApproval(false, reason)
}

func (r *Request) setApproval(approve bool, reason string) (*wire.ResponseFrame, error) {
	if r.api == nil {
		return nil, nil
	}
	action := "set_friend_add_request"
	params := map[string]any{"flag": r.Flag, "approve": approve}
	if r.RequestType == "group" {
		action = "set_group_add_request"
		params["sub_type"] = r.SubType
		if !approve {
			params["reason"] = reason
		}
	}
	return r.api.Send(action, params)
}

// Meta carries a meta_event (heartbeat or lifecycle).
type Meta struct {
	Base
	MetaEventType string `json:"meta_event_type"`
	SubType       string `json:"sub_type,omitempty"`
	Interval      int64  `json:"interval,omitempty"`
	Status        any    `json:"status,omitempty"`
}
