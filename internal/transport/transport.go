// Package transport adapts byte streams and websocket connections to the
// frame-at-a-time interface used by the chat server and client.
package transport

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/andy6609/chat-relay/internal/protocol"
)

// Conn is one framed connection.
type Conn interface {
	ReadFrame() (string, error)
	WriteFrame(frame string) error
	SetWriteDeadline(t time.Time) error
	// Close is idempotent.
	Close() error
	RemoteAddr() string
}

type streamConn struct {
	conn      net.Conn
	reader    *bufio.Reader
	framer    protocol.Framer
	closeOnce sync.Once
	closeErr  error
}

// NewStream frames a net.Conn with framer.
func NewStream(conn net.Conn, framer protocol.Framer) Conn {
	return &streamConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		framer: framer,
	}
}

func (t *streamConn) ReadFrame() (string, error) {
	return t.framer.ReadFrame(t.reader)
}

func (t *streamConn) WriteFrame(frame string) error {
	return t.framer.WriteFrame(t.conn, frame)
}

func (t *streamConn) SetWriteDeadline(d time.Time) error {
	return t.conn.SetWriteDeadline(d)
}

func (t *streamConn) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.conn.Close() })
	return t.closeErr
}

func (t *streamConn) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
