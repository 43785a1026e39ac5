package transport

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn carries one protocol frame per websocket message.
type wsConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocket wraps an upgraded or dialed websocket. maxFrame bounds
// inbound messages; exceeding it fails the connection.
func NewWebSocket(conn *websocket.Conn, maxFrame int) Conn {
	if maxFrame > 0 {
		conn.SetReadLimit(int64(maxFrame))
	}
	return &wsConn{conn: conn}
}

func (t *wsConn) ReadFrame() (string, error) {
	for {
		mt, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

// WriteFrame serializes writers; gorilla allows one concurrent writer.
func (t *wsConn) WriteFrame(frame string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (t *wsConn) SetWriteDeadline(d time.Time) error {
	return t.conn.SetWriteDeadline(d)
}

func (t *wsConn) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.conn.Close() })
	return t.closeErr
}

func (t *wsConn) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
