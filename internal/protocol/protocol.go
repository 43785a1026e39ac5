// Package protocol implements the line-oriented chat relay protocol.
//
// Every frame is TYPE:DATA. Clients send NAME, CREATE, JOIN, LEAVE, MESSAGE
// and LIST commands; the server answers with SYSTEM, MESSAGE and LIST frames.
package protocol

import (
	"fmt"
	"strings"
)

// Type is the command or frame type preceding the first colon.
type Type string

const (
	TypeName    Type = "NAME"
	TypeCreate  Type = "CREATE"
	TypeJoin    Type = "JOIN"
	TypeLeave   Type = "LEAVE"
	TypeMessage Type = "MESSAGE"
	TypeList    Type = "LIST"

	// Server to client only.
	TypeSystem Type = "SYSTEM"
)

// MaxMessageBytes is the default limit on MESSAGE payloads in UTF-8 bytes.
const MaxMessageBytes = 1024

// Known reports whether t is one of the six client commands.
func (t Type) Known() bool {
	switch t {
	case TypeName, TypeCreate, TypeJoin, TypeLeave, TypeMessage, TypeList:
		return true
	}
	return false
}

// Command is one decoded TYPE:DATA frame.
type Command struct {
	Type Type
	Data string
}

// Parse splits a frame on its first colon. ok is false when the line has no
// colon at all; such lines are ignored by the server.
func Parse(line string) (cmd Command, ok bool) {
	typ, data, found := strings.Cut(line, ":")
	if !found {
		return Command{}, false
	}
	return Command{Type: Type(typ), Data: data}, true
}

// Encode renders the command as a frame without the trailing newline.
func (c Command) Encode() string {
	return string(c.Type) + ":" + c.Data
}

func (c Command) String() string { return c.Encode() }

// System builds a server notice frame.
func System(text string) string {
	return string(TypeSystem) + ":" + text
}

// Message builds a relayed chat frame: MESSAGE:[name] text.
func Message(name, text string) string {
	return string(TypeMessage) + ":[" + name + "] " + text
}

// RoomInfo is one entry of a room directory snapshot.
type RoomInfo struct {
	Name    string
	Members int
}

func (r RoomInfo) String() string {
	return fmt.Sprintf("%s(%d)", r.Name, r.Members)
}

// List builds a LIST frame: LIST:a(1);b(0); with a trailing separator after
// every entry. An empty directory yields "LIST:".
func List(rooms []RoomInfo) string {
	var b strings.Builder
	b.WriteString(string(TypeList))
	b.WriteByte(':')
	for _, r := range rooms {
		b.WriteString(r.String())
		b.WriteByte(';')
	}
	return b.String()
}

// SplitRoomList returns the raw "name(count)" entries of a LIST payload in
// order, dropping empty segments.
func SplitRoomList(data string) []string {
	var out []string
	for _, entry := range strings.Split(data, ";") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
