package client

import (
	"strings"

	"github.com/andy6609/chat-relay/internal/protocol"
)

type EventKind int

const (
	EventMessage EventKind = iota
	EventRoomList
	EventConnectionLost
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventRoomList:
		return "room_list"
	case EventConnectionLost:
		return "connection_lost"
	default:
		return "unknown"
	}
}

// Event is one notification for the presentation layer.
type Event struct {
	Kind EventKind

	// EventMessage
	Text   string
	System bool // a SYSTEM: notice rather than relayed chat

	// EventRoomList, "name(count)" entries in server order
	Rooms []string

	// EventConnectionLost
	Err error
}

// Decode maps one server frame to an event. Frames without a known prefix
// are legacy plain chat lines.
func Decode(frame string) Event {
	switch {
	case strings.HasPrefix(frame, string(protocol.TypeSystem)+":"):
		return Event{Kind: EventMessage, Text: strings.TrimPrefix(frame, string(protocol.TypeSystem)+":"), System: true}
	case strings.HasPrefix(frame, string(protocol.TypeMessage)+":"):
		return Event{Kind: EventMessage, Text: strings.TrimPrefix(frame, string(protocol.TypeMessage)+":")}
	case strings.HasPrefix(frame, string(protocol.TypeList)+":"):
		return Event{Kind: EventRoomList, Rooms: protocol.SplitRoomList(strings.TrimPrefix(frame, string(protocol.TypeList)+":"))}
	default:
		return Event{Kind: EventMessage, Text: frame}
	}
}
