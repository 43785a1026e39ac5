package chat

import "github.com/andy6609/chat-relay/internal/protocol"

// Directory tracks display names, room membership and each client's current
// room. It has no locking: only the registry goroutine touches it.
type Directory struct {
	names   map[*Client]string
	current map[*Client]string
	rooms   map[string]map[*Client]struct{}
	order   []string // room names in creation order
}

func NewDirectory() *Directory {
	return &Directory{
		names:   make(map[*Client]string),
		current: make(map[*Client]string),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (d *Directory) RegisterName(c *Client, name string) error {
	if _, ok := d.names[c]; ok {
		return ErrAlreadyRegistered
	}
	d.names[c] = name
	return nil
}

func (d *Directory) Name(c *Client) (string, bool) {
	name, ok := d.names[c]
	return name, ok
}

func (d *Directory) CurrentRoom(c *Client) (string, bool) {
	room, ok := d.current[c]
	return room, ok
}

func (d *Directory) HasRoom(name string) bool {
	_, ok := d.rooms[name]
	return ok
}

// CreateRoom adds an empty room. Rooms are never deleted, even when empty.
func (d *Directory) CreateRoom(name string) error {
	if _, ok := d.rooms[name]; ok {
		return ErrRoomExists
	}
	d.rooms[name] = make(map[*Client]struct{})
	d.order = append(d.order, name)
	return nil
}

// JoinRoom moves c into room, leaving its previous room first. left is the
// room c was removed from, if any.
func (d *Directory) JoinRoom(c *Client, room string) (left string, err error) {
	members, ok := d.rooms[room]
	if !ok {
		return "", ErrRoomNotFound
	}
	left, _ = d.LeaveRoom(c)
	members[c] = struct{}{}
	d.current[c] = room
	return left, nil
}

// LeaveRoom removes c from its current room. ok is false when c was not in
// a room.
func (d *Directory) LeaveRoom(c *Client) (room string, ok bool) {
	room, ok = d.current[c]
	if !ok {
		return "", false
	}
	delete(d.rooms[room], c)
	delete(d.current, c)
	return room, true
}

// Remove forgets c entirely. It returns the room c was in, if any.
func (d *Directory) Remove(c *Client) (room string, ok bool) {
	room, ok = d.LeaveRoom(c)
	delete(d.names, c)
	return room, ok
}

// Members returns a snapshot of the room's members.
func (d *Directory) Members(room string) []*Client {
	members := d.rooms[room]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// ListRooms returns every room with its member count, in creation order.
func (d *Directory) ListRooms() []protocol.RoomInfo {
	out := make([]protocol.RoomInfo, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, protocol.RoomInfo{Name: name, Members: len(d.rooms[name])})
	}
	return out
}

func (d *Directory) RoomCount() int { return len(d.order) }
