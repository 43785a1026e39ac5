package chat

import (
	"github.com/google/uuid"

	"github.com/andy6609/chat-relay/internal/protocol"
	"github.com/andy6609/chat-relay/internal/transport"
)

// Client is the opaque handle for one connection. Its display name and
// current room live in the Directory, keyed by this pointer.
type Client struct {
	ID        string
	Transport transport.Conn
	Out       chan string // outbound frames drained by the writer goroutine
}

func NewClient(t transport.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:        uuid.NewString(),
		Transport: t,
		Out:       make(chan string, buffer),
	}
}

type EventType int

const (
	EventConnect EventType = iota
	EventDisconnect
	EventCommand
	EventFrameTooLong
)

type Event struct {
	Type      EventType
	Client    *Client
	Command   protocol.Command
	ReplyChan chan error // used by connect to ack admission
}

var (
	ErrServerFull        = errorString("server_full")
	ErrAlreadyRegistered = errorString("already_registered")
	ErrRoomExists        = errorString("room_exists")
	ErrRoomNotFound      = errorString("room_not_found")
)

type errorString string

func (e errorString) Error() string { return string(e) }
