package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncatbot/core/wire"
)

type fakeReplier struct {
	action string
	params any
}

func (f *fakeReplier) Send(action string, params any) (*wire.ResponseFrame, error) {
	f.action = action
	f.params = params
	return &wire.ResponseFrame{Status: "ok"}, nil
}

func TestGroupMessageReplyTextSendsGroupAction(t *testing.T) {
	gm := &GroupMessage{GroupID: "100"}
	r := &fakeReplier{}
	gm.BindAPI(r)

	resp, err := gm.ReplyText("hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "send_group_msg", r.action)
}

func TestGroupMessageReplyWithoutBindReturnsNil(t *testing.T) {
	gm := &GroupMessage{GroupID: "100"}
	resp, err := gm.ReplyText("hi")
	assert.NoError(t, err)
	assert.Nil(t, resp)
}

func TestPrivateMessageReplyTextSendsPrivateAction(t *testing.T) {
	pm := &PrivateMessage{UserID: "200"}
	r := &fakeReplier{}
	pm.BindAPI(r)

	_, err := pm.ReplyText("hey")
	require.NoError(t, err)
	assert.Equal(t, "send_private_msg", r.action)
}

func TestRequestApproveFriendRequest(t *testing.T) {
	req := &Request{RequestType: "friend", Flag: "flag1"}
	r := &fakeReplier{}
	req.BindAPI(r)

	_, err := req.Approve()
	require.NoError(t, err)
	assert.Equal(t, "set_friend_add_request", r.action)
	params := r.params.(map[string]any)
	assert.Equal(t, true, params["approve"])
}

func TestRequestRejectGroupRequestIncludesReason(t *testing.T) {
	req := &Request{RequestType: "group", SubType: "add", Flag: "flag2"}
	r := &fakeReplier{}
	req.BindAPI(r)

	_, err := req.Reject("no thanks")
	require.NoError(t, err)
	assert.Equal(t, "set_group_add_request", r.action)
	params := r.params.(map[string]any)
	assert.Equal(t, "no thanks", params["reason"])
}
