package push

import (
	"context"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Conn is the slice of a websocket connection the client needs. Tests plug
// in an in-memory implementation.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// DialFunc opens one connection to the push endpoint for a match channel.
type DialFunc func(ctx context.Context, rawURL string) (Conn, error)

// DialWebsocket is the production DialFunc, backed by gorilla/websocket.
func DialWebsocket(ctx context.Context, rawURL string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *wsConn) WriteJSON(v any) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *wsConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *wsConn) Close() error {
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.ws.Close()
}

// channelURL derives the per-match channel endpoint.
func channelURL(base, matchID string) string {
	return base + "/" + url.PathEscape(matchID)
}
