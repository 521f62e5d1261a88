package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestStripsLeadingSlash(t *testing.T) {
	req := NewRequest("/send_group_msg", nil)
	assert.Equal(t, "send_group_msg", req.Action)
	assert.NotEmpty(t, req.Echo)
}

func TestNewRequestGeneratesUniqueEchoes(t *testing.T) {
	a := NewRequest("ping", nil)
	b := NewRequest("ping", nil)
	assert.NotEqual(t, a.Echo, b.Echo)
}

func TestResponseFrameErrNilOnZeroRetcode(t *testing.T) {
	r := &ResponseFrame{RetCode: 0}
	assert.NoError(t, r.Err())
}

func TestResponseFrameErrOnNonZeroRetcode(t *testing.T) {
	r := &ResponseFrame{RetCode: 100, Message: "bad request"}
	err := r.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad request")
}

func TestIsResponseDetectsEventFrame(t *testing.T) {
	isResp, err := IsResponse([]byte(`{"post_type":"message","message":"hi"}`))
	require.NoError(t, err)
	assert.False(t, isResp)
}

func TestIsResponseDetectsResponseFrame(t *testing.T) {
	isResp, err := IsResponse([]byte(`{"status":"ok","retcode":0,"echo":"abc"}`))
	require.NoError(t, err)
	assert.True(t, isResp)
}

func TestIsResponseRejectsMalformedJSON(t *testing.T) {
	_, err := IsResponse([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeResponseRoundTrips(t *testing.T) {
	raw := []byte(`{"status":"ok","retcode":0,"message":"","data":{"foo":"bar"},"echo":"xyz"}`)
	resp, err := DecodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "xyz", resp.Echo)
	assert.Equal(t, "ok", resp.Status)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "bar", data["foo"])
}

func TestDecodeMessageArrayFromString(t *testing.T) {
	arr, err := DecodeMessageArray(json.RawMessage(`"hello"`))
	require.NoError(t, err)
	require.Len(t, arr, 1)
	assert.Equal(t, "hello", arr[0].Text())
}

func TestDecodeMessageArrayFromSegmentArray(t *testing.T) {
	raw := json.RawMessage(`[{"type":"text","data":{"text":"hi"}},{"type":"at","data":{"qq":"123"}}]`)
	arr, err := DecodeMessageArray(raw)
	require.NoError(t, err)
	require.Len(t, arr, 2)
	assert.Equal(t, "hi", arr[0].Text())
	assert.Equal(t, "123", arr[1].At())
}

func TestDecodeMessageArrayNullIsNil(t *testing.T) {
	arr, err := DecodeMessageArray(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, arr)
}

func TestDecodeSegmentPreservesUnknownFields(t *testing.T) {
	raw := json.RawMessage(`{"type":"image","data":{"file":"a.png","extra":"value"}}`)
	seg, err := DecodeSegment(raw)
	require.NoError(t, err)
	assert.Equal(t, "a.png", seg.File())
	assert.Equal(t, "value", seg.Data["extra"])
}
