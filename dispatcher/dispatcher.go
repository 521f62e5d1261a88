// Package dispatcher turns raw inbound gateway frames into typed domain
// events and publishes them on the event bus (§4.4).
package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/eventbus"
	"github.com/ncatbot/core/logger"
	"github.com/ncatbot/core/wire"
)

// postTypeProbe extracts just enough of a frame to pick a decode path.
type postTypeProbe struct {
	PostType  string `json:"post_type"`
	Time      int64  `json:"time"`
	SelfID    any    `json:"self_id"`
	MsgType   string `json:"message_type"`
	SentType  string `json:"message_sent_type"`
}

// Dispatcher consumes raw frames (typically via transport.Router's
// EventCallback) and publishes typed events on bus.
type Dispatcher struct {
	bus *eventbus.Bus
	api event.Replier
}

// New creates a dispatcher publishing onto bus. api is bound onto every
// message/request event so handlers can call event.Reply (§4.4 step 3); it
// may be nil until the router finishes connecting, in which case Reply
// becomes a no-op.
func New(bus *eventbus.Bus, api event.Replier) *Dispatcher {
	return &Dispatcher{bus: bus, api: api}
}

// BindAPI sets (or replaces) the API handle bound onto subsequent events.
func (d *Dispatcher) BindAPI(api event.Replier) { d.api = api }

// HandleFrame decodes raw and publishes the corresponding typed event in
// fire-and-forget mode. Malformed or unrecognized frames are logged and
// discarded; no panic or error ever propagates back to the router's read
// loop (§4.4).
func (d *Dispatcher) HandleFrame(raw []byte) {
	var probe postTypeProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		logger.BusWarnw("discarding unparseable frame", "err", err)
		return
	}
	if probe.PostType == "" {
		logger.BusDebugw("discarding frame with no post_type (not an event)")
		return
	}

	base := event.Base{
		SelfID:  toStringID(probe.SelfID),
		RawTime: probe.Time,
		Time:    time.Unix(probe.Time, 0),
	}

	var (
		topic event.Type
		typed any
		err   error
	)

	switch probe.PostType {
	case "message":
		topic, typed, err = decodeMessage(raw, base, probe.MsgType, d.api)
	case "message_sent":
		topic, typed, err = decodeMessageSent(raw, base)
	case "notice":
		topic, typed, err = decodeNotice(raw, base)
	case "request":
		topic, typed, err = decodeRequest(raw, base, d.api)
	case "meta_event":
		topic, typed, err = decodeMeta(raw, base)
	default:
		logger.BusDebugw("discarding frame with unknown post_type", "post_type", probe.PostType)
		return
	}

	if err != nil {
		logger.BusWarnw("discarding malformed event frame", "post_type", probe.PostType, "err", err)
		return
	}

	d.bus.Publish(context.Background(), string(topic), typed, eventbus.FireAndForget)
}

func decodeMessage(raw []byte, base event.Base, msgType string, api event.Replier) (event.Type, any, error) {
	var env struct {
		MessageID any    `json:"message_id"`
		GroupID   any    `json:"group_id"`
		UserID    any    `json:"user_id"`
		Sender    struct {
			UserID   any    `json:"user_id"`
			Nickname string `json:"nickname"`
			Card     string `json:"card"`
			Role     string `json:"role"`
		} `json:"sender"`
		Message json.RawMessage `json:"message"`
		RawText string          `json:"raw_message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, errors.Wrap(err, "decoding message event")
	}
	marr, err := wire.DecodeMessageArray(env.Message)
	if err != nil {
		return "", nil, err
	}
	sender := event.Sender{
		UserID:   normalizeSenderID(toStringID(env.Sender.UserID), env.UserID),
		Nickname: env.Sender.Nickname,
		Card:     env.Sender.Card,
		Role:     env.Sender.Role,
	}

	switch msgType {
	case "group":
		m := &event.GroupMessage{
			Base:      base,
			MessageID: toStringID(env.MessageID),
			GroupID:   toStringID(env.GroupID),
			UserID:    toStringID(env.UserID),
			Sender:    sender,
			Message:   marr,
			RawText:   env.RawText,
		}
		m.Base.PostType = event.TypeGroupMessage
		if api != nil {
			m.BindAPI(api)
		}
		return event.TypeGroupMessage, m, nil
	case "private":
		m := &event.PrivateMessage{
			Base:      base,
			MessageID: toStringID(env.MessageID),
			UserID:    toStringID(env.UserID),
			Sender:    sender,
			Message:   marr,
			RawText:   env.RawText,
		}
		m.Base.PostType = event.TypePrivateMessage
		if api != nil {
			m.BindAPI(api)
		}
		return event.TypePrivateMessage, m, nil
	default:
		return "", nil, errors.Newf("unknown message_type %q", msgType)
	}
}

func decodeMessageSent(raw []byte, base event.Base) (event.Type, any, error) {
	var env struct {
		TargetID any             `json:"target_id"`
		RealSeq  any             `json:"real_seq"`
		Message  json.RawMessage `json:"message"`
		RawText  string          `json:"raw_message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, errors.Wrap(err, "decoding message_sent event")
	}
	marr, err := wire.DecodeMessageArray(env.Message)
	if err != nil {
		return "", nil, err
	}
	base.PostType = event.TypeMessageSent
	m := &event.MessageSent{
		Base:     base,
		TargetID: toStringID(env.TargetID),
		RealSeq:  toStringID(env.RealSeq),
		Message:  marr,
		RawText:  env.RawText,
	}
	return event.TypeMessageSent, m, nil
}

func decodeNotice(raw []byte, base event.Base) (event.Type, any, error) {
	var env struct {
		NoticeType  string `json:"notice_type"`
		SubType     string `json:"sub_type"`
		GroupID     any    `json:"group_id"`
		UserID      any    `json:"user_id"`
		OperatorID  any    `json:"operator_id"`
		Duration    int64  `json:"duration"`
		File        any    `json:"file"`
		HonorType   string `json:"honor_type"`
		EmojiLikeID string `json:"emoji_like_id"`
		RawInfo     any    `json:"raw_info"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, errors.Wrap(err, "decoding notice event")
	}
	base.PostType = event.TypeNotice
	n := &event.Notice{
		Base:        base,
		NoticeType:  env.NoticeType,
		SubType:     env.SubType,
		GroupID:     toStringID(env.GroupID),
		UserID:      toStringID(env.UserID),
		OperatorID:  toStringID(env.OperatorID),
		Duration:    env.Duration,
		HonorType:   env.HonorType,
		EmojiLikeID: env.EmojiLikeID,
		RawInfo:     env.RawInfo,
	}
	if s, ok := env.File.(string); ok {
		n.File = s
	}
	return event.TypeNotice, n, nil
}

func decodeRequest(raw []byte, base event.Base, api event.Replier) (event.Type, any, error) {
	var env struct {
		RequestType string `json:"request_type"`
		SubType     string `json:"sub_type"`
		GroupID     any    `json:"group_id"`
		UserID      any    `json:"user_id"`
		Comment     string `json:"comment"`
		Flag        string `json:"flag"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, errors.Wrap(err, "decoding request event")
	}
	base.PostType = event.TypeRequest
	r := &event.Request{
		Base:        base,
		RequestType: env.RequestType,
		SubType:     env.SubType,
		GroupID:     toStringID(env.GroupID),
		UserID:      toStringID(env.UserID),
		Comment:     env.Comment,
		Flag:        env.Flag,
	}
	if api != nil {
		r.BindAPI(api)
	}
	return event.TypeRequest, r, nil
}

func decodeMeta(raw []byte, base event.Base) (event.Type, any, error) {
	var env struct {
		MetaEventType string `json:"meta_event_type"`
		SubType       string `json:"sub_type"`
		Interval      int64  `json:"interval"`
		Status        any    `json:"status"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, errors.Wrap(err, "decoding meta event")
	}
	base.PostType = event.TypeMeta
	m := &event.Meta{
		Base:          base,
		MetaEventType: env.MetaEventType,
		SubType:       env.SubType,
		Interval:      env.Interval,
		Status:        env.Status,
	}
	return event.TypeMeta, m, nil
}

// toStringID normalizes a gateway id field decoded through `any` (number or
// string) into its canonical string form (§3.2 invariant).
func toStringID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if float64(int64(t)) == t {
			return intToStr(int64(t))
		}
	}
	return ""
}

func normalizeSenderID(senderID string, fallback any) string {
	if senderID != "" {
		return senderID
	}
	return toStringID(fallback)
}

func intToStr(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
