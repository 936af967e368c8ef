package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
)

// Conn is one open, message-oriented connection to the game server.
// Read and Write may be called concurrently with each other, but neither
// concurrently with itself.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, frame []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DefaultReadLimit leaves room for base64 encoded round images.
const DefaultReadLimit = 8 << 20

// ErrBinaryFrame is returned for a non-text message. The connection stays
// usable; callers skip the frame and keep reading.
var ErrBinaryFrame = errors.New("unexpected binary frame")

// WebsocketDialer dials the game server over websocket.
type WebsocketDialer struct {
	ReadLimit  int64
	HTTPClient *http.Client
}

func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: d.HTTPClient})
	if err != nil {
		return nil, err
	}
	limit := d.ReadLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	c.SetReadLimit(limit)
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	typ, data, err := w.c.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, ErrBinaryFrame
	}
	return data, nil
}

func (w *wsConn) Write(ctx context.Context, frame []byte) error {
	return w.c.Write(ctx, websocket.MessageText, frame)
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "bye")
}

// IsNormalClose reports whether err is a clean close by the peer.
func IsNormalClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
