package chat

import (
	"time"

	"github.com/andy6609/chat-relay/internal/protocol"
)

// Config holds the server's limits and listen addresses.
type Config struct {
	Addr          string
	WebSocketAddr string // empty disables the websocket gateway

	MaxClients      int
	MaxMessageBytes int
	MaxLineBytes    int
	OutboundBuffer  int
	EventBuffer     int
	WriteTimeout    time.Duration
	Framing         string
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":5000",
		MaxClients:      50,
		MaxMessageBytes: protocol.MaxMessageBytes,
		MaxLineBytes:    protocol.DefaultMaxLine,
		OutboundBuffer:  64,
		EventBuffer:     128,
		WriteTimeout:    5 * time.Second,
		Framing:         protocol.FramingLine,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxClients <= 0 {
		c.MaxClients = d.MaxClients
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = d.MaxMessageBytes
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = d.MaxLineBytes
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = d.OutboundBuffer
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.Framing == "" {
		c.Framing = d.Framing
	}
	return c
}
