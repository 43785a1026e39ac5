// Package client turns a chat relay connection into a stream of events for
// a presentation layer. It keeps no room or name state of its own.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andy6609/chat-relay/internal/protocol"
	"github.com/andy6609/chat-relay/internal/transport"
)

var (
	ErrSessionClosed = errors.New("session closed")
	// ErrLineBreak rejects command data that would split into a second
	// command on the wire.
	ErrLineBreak = errors.New("command data contains a line break")
)

// DefaultMaxFrame bounds one inbound frame. Server frames such as LIST grow
// with the directory, so the client allows far more than a command line.
const DefaultMaxFrame = 1 << 20

type Config struct {
	// Framing is "line" or "length"; ignored for ws:// addresses.
	Framing     string
	DialTimeout time.Duration
	// MaxFrameBytes bounds inbound frames; longer ones are skipped.
	MaxFrameBytes int
	// SubscriberBuffer sizes each Subscribe channel.
	SubscriberBuffer int
	Logger           *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Framing:          protocol.FramingLine,
		DialTimeout:      10 * time.Second,
		MaxFrameBytes:    DefaultMaxFrame,
		SubscriberBuffer: 32,
	}
}

type subscriber struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// Session is one client connection. The send methods are safe for
// concurrent use.
type Session struct {
	conn   transport.Conn
	logger *slog.Logger
	buffer int

	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[int]*subscriber
	nextID int

	startOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
	readDone  chan struct{}
}

// Dial connects to addr. Plain host:port addresses use TCP with the
// configured framing; ws:// and wss:// URLs use the websocket gateway.
func Dial(ctx context.Context, addr string, cfg Config) (*Session, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = DefaultMaxFrame
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return NewSession(transport.NewWebSocket(ws, cfg.MaxFrameBytes), cfg), nil
	}

	framer, err := protocol.NewFramer(cfg.Framing, cfg.MaxFrameBytes)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewSession(transport.NewStream(conn, framer), cfg), nil
}

// NewSession wraps conn. The background reader starts with the first
// Subscribe so no frame is read before someone is listening.
func NewSession(conn transport.Conn, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := cfg.SubscriberBuffer
	if buffer <= 0 {
		buffer = DefaultConfig().SubscriberBuffer
	}
	return &Session{
		conn:     conn,
		logger:   logger,
		buffer:   buffer,
		subs:     make(map[int]*subscriber),
		closed:   make(chan struct{}),
		readDone: make(chan struct{}),
	}
}

// Subscribe registers a listener. Events arrive in the order the server
// sent them. The channel is closed after EventConnectionLost. The returned
// func unsubscribes.
func (s *Session) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{
		ch:   make(chan Event, s.buffer),
		done: make(chan struct{}),
	}

	s.subsMu.Lock()
	select {
	case <-s.readDone:
		// Already disconnected.
		s.subsMu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	default:
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.subsMu.Unlock()

	s.startOnce.Do(func() { go s.readLoop() })

	return sub.ch, func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
		sub.once.Do(func() { close(sub.done) })
	}
}

func (s *Session) SetName(name string) error     { return s.send(protocol.TypeName, name) }
func (s *Session) CreateRoom(room string) error  { return s.send(protocol.TypeCreate, room) }
func (s *Session) JoinRoom(room string) error    { return s.send(protocol.TypeJoin, room) }
func (s *Session) LeaveRoom() error              { return s.send(protocol.TypeLeave, "") }
func (s *Session) SendMessage(text string) error { return s.send(protocol.TypeMessage, text) }
func (s *Session) RequestRooms() error           { return s.send(protocol.TypeList, "") }

func (s *Session) send(t protocol.Type, data string) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	case <-s.readDone:
		return ErrSessionClosed
	default:
	}
	if strings.ContainsAny(data, "\r\n") {
		return fmt.Errorf("send %s: %w", t, ErrLineBreak)
	}
	frame := protocol.Command{Type: t, Data: data}.Encode()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteFrame(frame); err != nil {
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}

// Close disconnects. Subscribers still receive EventConnectionLost with
// ErrSessionClosed if they have room for it.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}

// Done is closed once the reader has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.readDone
}

func (s *Session) readLoop() {
	var lost error
	for {
		frame, err := s.conn.ReadFrame()
		if errors.Is(err, protocol.ErrFrameTooLong) {
			s.logger.Warn("oversized frame skipped")
			continue
		}
		if err != nil {
			lost = err
			break
		}
		s.publish(Decode(frame))
	}

	select {
	case <-s.closed:
		lost = ErrSessionClosed
	default:
		s.logger.Warn("connection lost", "error", lost)
		_ = s.conn.Close()
	}
	s.finish(Event{Kind: EventConnectionLost, Err: lost})
}

func (s *Session) snapshot() []*subscriber {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	out := make([]*subscriber, 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if sub, ok := s.subs[id]; ok {
			out = append(out, sub)
		}
	}
	return out
}

// publish hands ev to every subscriber, waiting for slow ones. Only a local
// Close or an unsubscribe cuts the wait short.
func (s *Session) publish(ev Event) {
	for _, sub := range s.snapshot() {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		case <-s.closed:
			return
		}
	}
}

func (s *Session) finish(ev Event) {
	s.subsMu.Lock()
	subs := s.subs
	s.subs = make(map[int]*subscriber)
	close(s.readDone)
	s.subsMu.Unlock()

	for _, sub := range subs {
		select {
		case <-s.closed:
			select {
			case sub.ch <- ev:
			default:
			}
		default:
			select {
			case sub.ch <- ev:
			case <-sub.done:
			}
		}
		close(sub.ch)
	}
}
