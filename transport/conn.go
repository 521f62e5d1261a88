// Package transport implements the single-connection WebSocket router that
// correlates outbound gateway requests with their responses by echo-id and
// delivers every uncorrelated inbound frame to an event callback (§4.2).
package transport

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ncatbot/core/errors"
)

// Conn abstracts the WebSocket connection for testability. The production
// implementation wraps gorilla/websocket; tests substitute an in-memory
// pair. Mirrors the teacher's sync.Conn shape.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// gorillaConn names *websocket.Conn, which already satisfies Conn
// structurally; Dial returns the *websocket.Conn as a Conn directly and does
// not refer to this alias.
type gorillaConn = websocket.Conn

// Dial opens a WebSocket connection to uri, appending access_token as a URL
// query parameter per §6.1 authentication. header carries any additional
// upgrade headers the gateway requires.
func Dial(uri, token string, header http.Header) (Conn, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.ConnectionError(err, "parsing gateway uri %q", uri)
	}
	if token != "" {
		q := u.Query()
		q.Set("access_token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		return nil, errors.ConnectionError(err, "dialing gateway at %s", u.Host)
	}
	return conn, nil
}
