package transport

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andy6609/chat-relay/internal/protocol"
)

func TestStream_RoundTripAndClose(t *testing.T) {
	a, b := net.Pipe()
	left := NewStream(a, protocol.LineFramer{})
	right := NewStream(b, protocol.LineFramer{})

	go func() {
		_ = left.WriteFrame("NAME:Alice")
	}()
	got, err := right.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "NAME:Alice", got)

	require.NoError(t, left.Close())
	assert.NoError(t, left.Close())

	_, err = right.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWebSocket_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewWebSocket(ws, 64)
		defer conn.Close()
		for {
			frame, err := conn.ReadFrame()
			if err != nil {
				return
			}
			if err := conn.WriteFrame("SYSTEM:" + frame); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	conn := NewWebSocket(ws, 0)
	defer conn.Close()

	require.NoError(t, conn.WriteFrame("LIST:\r\n"))
	got, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "SYSTEM:LIST:", got)

	// Past the server's read limit the connection fails.
	require.NoError(t, conn.WriteFrame("MESSAGE:"+strings.Repeat("x", 128)))
	_, err = conn.ReadFrame()
	assert.Error(t, err)
}
