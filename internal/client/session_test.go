package client

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andy6609/chat-relay/internal/chat"
	"github.com/andy6609/chat-relay/internal/protocol"
	"github.com/andy6609/chat-relay/internal/transport"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		frame string
		want  Event
	}{
		{"SYSTEM:enter your name:", Event{Kind: EventMessage, Text: "enter your name:", System: true}},
		{"MESSAGE:[Alice] hi", Event{Kind: EventMessage, Text: "[Alice] hi"}},
		{"LIST:", Event{Kind: EventRoomList}},
		{"LIST:lobby(2);dev(0);", Event{Kind: EventRoomList, Rooms: []string{"lobby(2)", "dev(0)"}}},
		{"Alice joined the chat", Event{Kind: EventMessage, Text: "Alice joined the chat"}},
	}
	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.frame))
		})
	}
}

func startServer(t *testing.T) *chat.Server {
	t.Helper()
	srv, err := chat.NewServer(chat.Config{Addr: "127.0.0.1:0"}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	return srv
}

func dial(t *testing.T, srv *chat.Server) *Session {
	t.Helper()
	s, err := Dial(context.Background(), srv.Addr().String(), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func TestSession_ChatFlow(t *testing.T) {
	srv := startServer(t)
	t.Cleanup(srv.Stop)

	alice := dial(t, srv)
	events, unsubscribe := alice.Subscribe()
	defer unsubscribe()

	assert.Equal(t, Event{Kind: EventMessage, Text: "enter your name:", System: true}, nextEvent(t, events))

	require.NoError(t, alice.SetName("Alice"))
	assert.Equal(t, Event{Kind: EventRoomList}, nextEvent(t, events))

	require.NoError(t, alice.CreateRoom("lobby"))
	assert.Equal(t, "you created room: lobby", nextEvent(t, events).Text)
	assert.Equal(t, []string{"lobby(0)"}, nextEvent(t, events).Rooms)

	require.NoError(t, alice.JoinRoom("lobby"))
	assert.Equal(t, "you are in room: lobby", nextEvent(t, events).Text)

	require.NoError(t, alice.SendMessage("hi"))
	ev := nextEvent(t, events)
	assert.Equal(t, "[Alice] hi", ev.Text)
	assert.False(t, ev.System)

	require.NoError(t, alice.LeaveRoom())
	require.NoError(t, alice.RequestRooms())
	assert.Equal(t, []string{"lobby(0)"}, nextEvent(t, events).Rooms)
}

func TestSession_SubscribersSeeSameOrder(t *testing.T) {
	srv := startServer(t)
	t.Cleanup(srv.Stop)

	s := dial(t, srv)
	first, unsubFirst := s.Subscribe()
	second, unsubSecond := s.Subscribe()
	defer unsubSecond()

	for _, ch := range []<-chan Event{first, second} {
		assert.True(t, nextEvent(t, ch).System)
	}

	unsubFirst()
	require.NoError(t, s.SetName("Bob"))
	require.NoError(t, s.SendMessage("nobody hears this"))
	assert.Equal(t, EventRoomList, nextEvent(t, second).Kind)
	assert.Equal(t, "join a room first", nextEvent(t, second).Text)

	select {
	case ev := <-first:
		t.Fatalf("unsubscribed listener got %+v", ev)
	default:
	}
}

func TestSession_CloseReportsConnectionLost(t *testing.T) {
	srv := startServer(t)
	t.Cleanup(srv.Stop)

	s := dial(t, srv)
	events, _ := s.Subscribe()
	nextEvent(t, events)

	require.NoError(t, s.Close())
	ev := nextEvent(t, events)
	assert.Equal(t, EventConnectionLost, ev.Kind)
	assert.ErrorIs(t, ev.Err, ErrSessionClosed)

	_, open := <-events
	assert.False(t, open)
	assert.ErrorIs(t, s.SendMessage("late"), ErrSessionClosed)

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestSession_ServerShutdown(t *testing.T) {
	srv := startServer(t)

	s := dial(t, srv)
	events, _ := s.Subscribe()
	nextEvent(t, events)

	srv.Stop()
	ev := nextEvent(t, events)
	assert.Equal(t, EventConnectionLost, ev.Kind)
	assert.Error(t, ev.Err)
	assert.NotErrorIs(t, ev.Err, ErrSessionClosed)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop")
	}
}

func TestSession_RoomListBeyondCommandLimit(t *testing.T) {
	srv := startServer(t)
	t.Cleanup(srv.Stop)

	s := dial(t, srv)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()
	nextEvent(t, events)

	require.NoError(t, s.SetName("Alice"))
	assert.Equal(t, EventRoomList, nextEvent(t, events).Kind)

	var want []string
	for i := 0; i < 3; i++ {
		room := fmt.Sprintf("%d%s", i, strings.Repeat("r", 1500))
		want = append(want, room+"(0)")

		require.NoError(t, s.CreateRoom(room))
		assert.Equal(t, "you created room: "+room, nextEvent(t, events).Text)
		ev := nextEvent(t, events)
		require.Equal(t, EventRoomList, ev.Kind)
		assert.Equal(t, want, ev.Rooms)
	}
}

func TestSession_SkipsOversizedFrame(t *testing.T) {
	local, remote := net.Pipe()
	t.Cleanup(func() { remote.Close() })

	s := NewSession(transport.NewStream(local, protocol.LineFramer{MaxLen: 32}), DefaultConfig())
	t.Cleanup(func() { s.Close() })
	events, _ := s.Subscribe()

	go func() {
		_, _ = remote.Write([]byte("SYSTEM:" + strings.Repeat("x", 100) + "\nSYSTEM:still here\n"))
		remote.Close()
	}()

	assert.Equal(t, Event{Kind: EventMessage, Text: "still here", System: true}, nextEvent(t, events))
	assert.Equal(t, EventConnectionLost, nextEvent(t, events).Kind)
}

func TestSession_RejectsLineBreaks(t *testing.T) {
	srv := startServer(t)
	t.Cleanup(srv.Stop)

	s := dial(t, srv)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()
	nextEvent(t, events)

	assert.ErrorIs(t, s.SetName("Alice\nCREATE:injected"), ErrLineBreak)
	assert.ErrorIs(t, s.CreateRoom("lobby\r"), ErrLineBreak)
	assert.ErrorIs(t, s.SendMessage("one\ntwo"), ErrLineBreak)

	require.NoError(t, s.SetName("Alice"))
	assert.Equal(t, Event{Kind: EventRoomList}, nextEvent(t, events))
	require.NoError(t, s.RequestRooms())
	assert.Equal(t, Event{Kind: EventRoomList}, nextEvent(t, events))
}
