package transport

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncatbot/core/wire"
)

// fakeConn is an in-memory Conn double: writes are captured in `written`;
// inbound frames are fed back to ReadMessage from `toRead`.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	toRead  chan []byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{toRead: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	raw, ok := <-f.toRead
	if !ok {
		return 0, nil, assert.AnError
	}
	return 1, raw, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.toRead)
	}
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(h func(string) error) {}

func (f *fakeConn) lastWritten() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.written) == 0 {
		return nil
	}
	return f.written[len(f.written)-1]
}

func TestSendCorrelatesResponseByEcho(t *testing.T) {
	conn := newFakeConn()
	router := New(conn, nil)
	go router.Run(context.Background())

	go func() {
		for {
			raw := conn.lastWritten()
			if raw == nil {
				time.Sleep(time.Millisecond)
				continue
			}
			var req wire.OutboundRequest
			require.NoError(t, json.Unmarshal(raw, &req))
			resp := wire.ResponseFrame{Status: "ok", RetCode: 0, Echo: req.Echo}
			b, _ := json.Marshal(resp)
			conn.toRead <- b
			return
		}
	}()

	resp, err := router.Send(context.Background(), "get_login_info", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestSendTimesOutWithoutResponse(t *testing.T) {
	conn := newFakeConn()
	router := New(conn, nil)
	go router.Run(context.Background())

	_, err := router.Send(context.Background(), "ping", nil, 20*time.Millisecond)
	assert.Error(t, err)
}

func TestSendReturnsErrNotConnectedAfterClose(t *testing.T) {
	conn := newFakeConn()
	router := New(conn, nil)
	require.NoError(t, router.Close())

	_, err := router.Send(context.Background(), "ping", nil, time.Second)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestUncorrelatedFrameDispatchedToEventCallback(t *testing.T) {
	conn := newFakeConn()
	var got []byte
	var wg sync.WaitGroup
	wg.Add(1)
	router := New(conn, func(raw []byte) {
		got = raw
		wg.Done()
	})
	go router.Run(context.Background())

	evt := []byte(`{"post_type":"message","message":"hi"}`)
	conn.toRead <- evt

	wg.Wait()
	assert.JSONEq(t, string(evt), string(got))
}
