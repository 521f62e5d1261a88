package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/eventbus"
)

func TestHandleFrameDiscardsFrameWithoutPostType(t *testing.T) {
	bus := eventbus.New(0, 0)
	d := New(bus, nil)
	// Should not panic; should simply discard.
	d.HandleFrame([]byte(`{"foo":"bar"}`))
}

func TestHandleFrameDiscardsMalformedJSON(t *testing.T) {
	bus := eventbus.New(0, 0)
	d := New(bus, nil)
	d.HandleFrame([]byte(`not json`))
}

func TestHandleFramePublishesTypedGroupMessage(t *testing.T) {
	bus := eventbus.New(1000, 1000)
	d := New(bus, nil)

	resultCh := make(chan *event.GroupMessage, 1)
	_, err := bus.Subscribe(string(event.TypeGroupMessage), 0, time.Second, "test",
		func(ctx context.Context, evt any) error {
			gm, _ := evt.(*event.GroupMessage)
			resultCh <- gm
			return nil
		})
	require.NoError(t, err)

	raw := []byte(`{"post_type":"message","message_type":"group","self_id":1,"time":1700000000,"message_id":"m1","group_id":"10","user_id":"20","sender":{"user_id":"20","nickname":"alice","role":"member"},"message":"hello there"}`)
	d.HandleFrame(raw)

	select {
	case gm := <-resultCh:
		require.NotNil(t, gm)
		assert.Equal(t, "10", gm.GroupID)
		assert.Equal(t, "20", gm.UserID)
		assert.Equal(t, "hello there", gm.Message.RawText())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}
}

func TestHandleFramePublishesNoticeEvent(t *testing.T) {
	bus := eventbus.New(1000, 1000)
	d := New(bus, nil)

	resultCh := make(chan *event.Notice, 1)
	_, err := bus.Subscribe(string(event.TypeNotice), 0, time.Second, "test",
		func(ctx context.Context, evt any) error {
			n, _ := evt.(*event.Notice)
			resultCh <- n
			return nil
		})
	require.NoError(t, err)

	raw := []byte(`{"post_type":"notice","notice_type":"group_increase","group_id":"10","user_id":"20","operator_id":"30"}`)
	d.HandleFrame(raw)

	select {
	case n := <-resultCh:
		require.NotNil(t, n)
		assert.Equal(t, "group_increase", n.NoticeType)
		assert.Equal(t, "10", n.GroupID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}
}
