package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer answers every text frame with the same frame, then closes
// normally after a frame reading "bye".
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		for {
			typ, data, err := c.Read(r.Context())
			if err != nil {
				return
			}
			if string(data) == "bye" {
				c.Close(websocket.StatusNormalClosure, "done")
				return
			}
			if string(data) == "binary" {
				typ = websocket.MessageBinary
			}
			if err := c.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketDialer_RoundTrip(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := WebsocketDialer{}.Dial(ctx, wsURL(srv))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Write(ctx, []byte(`{"type":"start_game","payload":{}}`)))
	got, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"start_game","payload":{}}`, string(got))
}

func TestWebsocketDialer_RejectsBinaryFrames(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := WebsocketDialer{}.Dial(ctx, wsURL(srv))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Write(ctx, []byte("binary")))
	_, err = conn.Read(ctx)
	assert.ErrorIs(t, err, ErrBinaryFrame)

	// the connection survives the rejected frame
	require.NoError(t, conn.Write(ctx, []byte(`{"type":"start_game","payload":{}}`)))
	got, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"start_game","payload":{}}`, string(got))
}

func TestIsNormalClose(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := WebsocketDialer{}.Dial(ctx, wsURL(srv))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Write(ctx, []byte("bye")))
	_, err = conn.Read(ctx)
	require.Error(t, err)
	assert.True(t, IsNormalClose(err))
	assert.False(t, IsNormalClose(context.DeadlineExceeded))
}

func TestWebsocketDialer_DialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := WebsocketDialer{}.Dial(ctx, "ws://127.0.0.1:1/ws/game")
	assert.Error(t, err)
}
