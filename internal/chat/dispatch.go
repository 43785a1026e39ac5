package chat

import (
	"strings"

	"github.com/andy6609/chat-relay/internal/protocol"
)

const (
	noticePrompt            = "enter your name:"
	noticeUnknownCommand    = "unknown command"
	noticeAlreadyRegistered = "you are already registered"
	noticeNameEmpty         = "name must not be empty"
	noticeRegisterFirst     = "register first"
	noticeRoomNameEmpty     = "room name must not be empty"
	noticeRoomExists        = "room already exists"
	noticeRoomNotFound      = "room does not exist"
	noticeJoinFirst         = "join a room first"
	noticeTooLong           = "message too long"
)

func noticeRoomCreated(room string) string { return "you created room: " + room }
func noticeInRoom(room string) string      { return "you are in room: " + room }
func noticeJoined(name string) string      { return name + " joined the room" }
func noticeLeft(name string) string        { return name + " left the room" }

// handleCommand applies one decoded command from c. Every command except
// NAME requires a registered name.
func (r *Registry) handleCommand(c *Client, cmd protocol.Command) {
	if !r.connected(c) {
		return
	}
	if !cmd.Type.Known() {
		r.send(c, protocol.System(noticeUnknownCommand))
		return
	}
	if cmd.Type != protocol.TypeName {
		if _, ok := r.dir.Name(c); !ok {
			r.send(c, protocol.System(noticeRegisterFirst))
			return
		}
	}

	switch cmd.Type {
	case protocol.TypeName:
		r.handleName(c, cmd.Data)
	case protocol.TypeCreate:
		r.handleCreate(c, cmd.Data)
	case protocol.TypeJoin:
		r.handleJoin(c, cmd.Data)
	case protocol.TypeLeave:
		r.leaveRoom(c)
	case protocol.TypeMessage:
		r.handleMessage(c, cmd.Data)
	case protocol.TypeList:
		r.sendRoomList(c)
	}
}

func (r *Registry) handleName(c *Client, data string) {
	if _, ok := r.dir.Name(c); ok {
		r.send(c, protocol.System(noticeAlreadyRegistered))
		return
	}
	name := strings.TrimSpace(data)
	if name == "" {
		r.send(c, protocol.System(noticeNameEmpty))
		return
	}
	if err := r.dir.RegisterName(c, name); err != nil {
		r.send(c, protocol.System(noticeAlreadyRegistered))
		return
	}
	r.logger.Info("user registered", "conn", c.ID, "name", name)
	r.sendRoomList(c)
}

func (r *Registry) handleCreate(c *Client, data string) {
	room := strings.TrimSpace(data)
	if room == "" {
		r.send(c, protocol.System(noticeRoomNameEmpty))
		return
	}
	if err := r.dir.CreateRoom(room); err != nil {
		r.send(c, protocol.System(noticeRoomExists))
		return
	}
	r.metrics.Rooms.Set(float64(r.dir.RoomCount()))

	name, _ := r.dir.Name(c)
	r.logger.Info("room created", "room", room, "name", name)
	r.send(c, protocol.System(noticeRoomCreated(room)))
	r.sendRoomList(c)
}

func (r *Registry) handleJoin(c *Client, data string) {
	room := strings.TrimSpace(data)
	if !r.dir.HasRoom(room) {
		r.send(c, protocol.System(noticeRoomNotFound))
		return
	}

	r.leaveRoom(c)
	if _, err := r.dir.JoinRoom(c, room); err != nil {
		r.send(c, protocol.System(noticeRoomNotFound))
		return
	}

	name, _ := r.dir.Name(c)
	r.broadcastToRoom(protocol.System(noticeJoined(name)), room, c)
	r.send(c, protocol.System(noticeInRoom(room)))
	r.logger.Info("joined room", "name", name, "room", room)
}

// leaveRoom removes c from its current room and tells the remaining members.
// It is a no-op when c is not in a room.
func (r *Registry) leaveRoom(c *Client) {
	room, ok := r.dir.LeaveRoom(c)
	if !ok {
		return
	}
	name, _ := r.dir.Name(c)
	r.broadcastToRoom(protocol.System(noticeLeft(name)), room, nil)
	r.logger.Info("left room", "name", name, "room", room)
}

func (r *Registry) handleMessage(c *Client, data string) {
	room, ok := r.dir.CurrentRoom(c)
	if !ok {
		r.send(c, protocol.System(noticeJoinFirst))
		return
	}
	text := strings.TrimSpace(data)
	if text == "" {
		return
	}
	if len(text) > r.cfg.MaxMessageBytes {
		r.send(c, protocol.System(noticeTooLong))
		return
	}

	name, _ := r.dir.Name(c)
	r.broadcastToRoom(protocol.Message(name, text), room, nil)
	r.logger.Debug("message relayed", "room", room, "name", name, "bytes", len(text))
}

func (r *Registry) sendRoomList(c *Client) {
	r.send(c, protocol.List(r.dir.ListRooms()))
}
