package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/andy6609/chat-relay/internal/client"
)

type action int

const (
	actionMessage action = iota
	actionCreate
	actionJoin
	actionLeave
	actionList
	actionQuit
	actionHelp
	actionNone
)

// parseInput maps one console line to a session call.
func parseInput(line string) (action, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return actionNone, ""
	}
	if !strings.HasPrefix(line, "/") {
		return actionMessage, line
	}
	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "create":
		return actionCreate, arg
	case "join":
		return actionJoin, arg
	case "leave":
		return actionLeave, ""
	case "list", "rooms":
		return actionList, ""
	case "quit", "exit":
		return actionQuit, ""
	default:
		return actionHelp, ""
	}
}

// commands is the part of client.Session the input loop drives.
type commands interface {
	SendMessage(text string) error
	CreateRoom(room string) error
	JoinRoom(room string) error
	LeaveRoom() error
	RequestRooms() error
}

// readLines feeds stdin lines to a channel so the input loop can also watch
// the connection.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		input := bufio.NewScanner(r)
		for input.Scan() {
			lines <- input.Text()
		}
	}()
	return lines
}

// inputLoop runs console lines against sess until quit, end of input or the
// connection going away.
func inputLoop(sess commands, lines <-chan string, done <-chan struct{}, help func()) error {
	for {
		var line string
		select {
		case <-done:
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		var err error
		act, arg := parseInput(line)
		switch act {
		case actionMessage:
			err = sess.SendMessage(arg)
		case actionCreate:
			err = sess.CreateRoom(arg)
		case actionJoin:
			err = sess.JoinRoom(arg)
		case actionLeave:
			err = sess.LeaveRoom()
		case actionList:
			err = sess.RequestRooms()
		case actionQuit:
			return nil
		case actionHelp:
			help()
		}
		if err != nil {
			return err
		}
	}
}

func main() {
	addr := flag.String("addr", "localhost:5000", "server address, host:port or ws:// URL")
	name := flag.String("name", "", "display name (prompted when empty)")
	framing := flag.String("framing", "line", "wire framing: line or length")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := client.DefaultConfig()
	cfg.Framing = *framing
	cfg.Logger = logger

	sess, err := client.Dial(context.Background(), *addr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	d := newDisplay()
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()
	shown := make(chan struct{})
	go func() {
		defer close(shown)
		for ev := range events {
			d.show(ev)
		}
	}()

	lines := readLines(os.Stdin)
	if *name == "" {
		select {
		case l, ok := <-lines:
			if !ok {
				return
			}
			*name = l
		case <-sess.Done():
			return
		}
	}
	if err := sess.SetName(*name); err != nil {
		fmt.Fprintf(os.Stderr, "register: %v\n", err)
		os.Exit(1)
	}
	d.usage()

	if err := inputLoop(sess, lines, sess.Done(), d.usage); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
	}
	_ = sess.Close()
	<-shown
}
