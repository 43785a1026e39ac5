package main

import (
	"strings"

	"github.com/fatih/color"

	"github.com/andy6609/chat-relay/internal/client"
)

type display struct {
	systemColor *color.Color
	chatColor   *color.Color
	roomColor   *color.Color
	errorColor  *color.Color
}

func newDisplay() *display {
	return &display{
		systemColor: color.New(color.FgYellow),
		chatColor:   color.New(color.FgWhite),
		roomColor:   color.New(color.FgCyan, color.Bold),
		errorColor:  color.New(color.FgRed, color.Bold),
	}
}

func (d *display) show(ev client.Event) {
	switch ev.Kind {
	case client.EventMessage:
		if ev.System {
			d.systemColor.Println("* " + ev.Text)
			return
		}
		d.chatColor.Println(ev.Text)
	case client.EventRoomList:
		if len(ev.Rooms) == 0 {
			d.roomColor.Println("rooms: (none)")
			return
		}
		d.roomColor.Println("rooms: " + strings.Join(ev.Rooms, ", "))
	case client.EventConnectionLost:
		d.errorColor.Printf("disconnected: %v\n", ev.Err)
	}
}

func (d *display) usage() {
	d.systemColor.Println(`commands:
  /create <room>   create a room
  /join <room>     join a room
  /leave           leave the current room
  /list            list rooms
  /quit            disconnect
anything else is sent to the current room`)
}
