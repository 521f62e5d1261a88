package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
	"github.com/ncatbot/core/wire"
)

// EventCallback receives every inbound frame that does not correlate with a
// pending request. The router calls it synchronously on its read-loop
// goroutine, so frames are delivered in arrival order and the next frame is
// read only after the callback returns.
type EventCallback func(raw []byte)

// pending is one in-flight request awaiting its echo-matched response.
type pending struct {
	echo     string
	result   chan *wire.ResponseFrame
	deadline time.Time
}

// Router owns a single bidirectional WebSocket connection to the gateway. It
// is single-writer within a goroutine: concurrent Send calls serialize only
// at the encode/write step (guarded by writeMu), never at the await step, so
// many requests can be outstanding at once (§4.2, §8 S1).
type Router struct {
	conn     Conn
	onEvent  EventCallback
	writeMu  sync.Mutex
	pendMu   sync.Mutex
	pendingM map[string]*pending

	closed   chan struct{}
	closeOnce sync.Once
	connected bool
}

// New wraps an already-dialed connection. onEvent is invoked from the
// router's own read-loop goroutine for every frame that isn't a response to
// a live pending request.
func New(conn Conn, onEvent EventCallback) *Router {
	return &Router{
		conn:      conn,
		onEvent:   onEvent,
		pendingM:  make(map[string]*pending),
		closed:    make(chan struct{}),
		connected: true,
	}
}

// Run starts the inbound read loop and blocks until the connection closes or
// ctx is cancelled. Call it from a dedicated goroutine. ctx is checked after
// each frame is handled, so a cancellation takes effect once the next frame
// arrives or the read fails.
func (r *Router) Run(ctx context.Context) error {
	r.conn.SetPongHandler(func(string) error {
		return r.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = r.conn.SetReadDeadline(time.Now().Add(pongWait))

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	go r.pingLoop(ctx, ticker)

	for {
		_, raw, err := r.conn.ReadMessage()
		if err != nil {
			r.shutdown()
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return errors.ConnectionError(err, "gateway connection closed unexpectedly")
			}
			return nil
		}
		r.handleFrame(raw)

		select {
		case <-ctx.Done():
			r.shutdown()
			return ctx.Err()
		default:
		}
	}
}

func (r *Router) pingLoop(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.closed:
			return
		case <-ticker.C:
			r.writeMu.Lock()
			_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := r.conn.WriteMessage(websocket.PingMessage, nil)
			r.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (r *Router) handleFrame(raw []byte) {
	isResp, err := wire.IsResponse(raw)
	if err != nil {
		logger.GatewayWarnw("discarding malformed frame", "err", err)
		return
	}
	if !isResp {
		if r.onEvent != nil {
			r.onEvent(raw)
		}
		return
	}

	resp, err := wire.DecodeResponse(raw)
	if err != nil {
		logger.GatewayWarnw("discarding malformed response frame", "err", err)
		return
	}

	r.pendMu.Lock()
	p, ok := r.pendingM[resp.Echo]
	if ok {
		delete(r.pendingM, resp.Echo)
	}
	r.pendMu.Unlock()

	if !ok {
		// Echo no longer registered: timed out and already dropped (§5).
		logger.GatewayDebugw("dropping response for unknown/expired echo", "echo", resp.Echo)
		return
	}
	p.result <- resp
}

// ErrNotConnected is returned by Send when the router has not yet
// established (or has lost) its connection.
var ErrNotConnected = errors.ConnectionError(errors.New("not connected"), "router has no live connection")

// Send encodes action/params as an outbound request, registers a completion
// slot keyed by the fresh echo id, writes the frame, and waits up to timeout
// for the matching response (§4.2, §8 invariant 1).
func (r *Router) Send(ctx context.Context, action string, params any, timeout time.Duration) (*wire.ResponseFrame, error) {
	if !r.connected {
		return nil, ErrNotConnected
	}

	req := wire.NewRequest(action, params)

	p := &pending{
		echo:     req.Echo,
		result:   make(chan *wire.ResponseFrame, 1),
		deadline: time.Now().Add(timeout),
	}
	r.pendMu.Lock()
	r.pendingM[req.Echo] = p
	r.pendMu.Unlock()

	r.writeMu.Lock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	writeErr := r.conn.WriteMessage(websocket.TextMessage, mustJSON(req))
	r.writeMu.Unlock()

	if writeErr != nil {
		r.pendMu.Lock()
		delete(r.pendingM, req.Echo)
		r.pendMu.Unlock()
		return nil, errors.ConnectionError(writeErr, "writing request %s", action)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-p.result:
		return resp, nil
	case <-timer.C:
		r.pendMu.Lock()
		delete(r.pendingM, req.Echo)
		r.pendMu.Unlock()
		return nil, errors.TimeoutError("send(%s) exceeded %s", action, timeout)
	case <-r.closed:
		return nil, errors.ConnectionError(errors.New("router closed"), "send(%s) cancelled by shutdown", action)
	case <-ctx.Done():
		r.pendMu.Lock()
		delete(r.pendingM, req.Echo)
		r.pendMu.Unlock()
		return nil, ctx.Err()
	}
}

// Close cancels every pending request (signaling cancellation, not timeout)
// and closes the underlying socket.
func (r *Router) Close() error {
	r.shutdown()
	return r.conn.Close()
}

func (r *Router) shutdown() {
	r.closeOnce.Do(func() {
		r.connected = false
		close(r.closed)
	})
}

func mustJSON(v wire.OutboundRequest) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// OutboundRequest's Params is caller-supplied arbitrary data; an
		// encode failure here means the caller passed something
		// unmarshalable, which is a programming error, not a runtime one.
		logger.GatewayErrorw("failed to marshal outbound request", "err", err)
		return []byte(`{}`)
	}
	return b
}
