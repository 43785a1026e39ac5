package chat

import (
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/andy6609/chat-relay/internal/protocol"
)

// HandleSession reads frames from an admitted client and submits them to
// the registry until the connection fails or the registry stops.
func HandleSession(c *Client, reg *Registry, logger *slog.Logger) {
	defer func() {
		_ = c.Transport.Close()
	}()

	writerDone := StartOutboundWriter(c, reg.cfg.WriteTimeout, logger)
	defer func() { <-writerDone }()

	for {
		line, err := c.Transport.ReadFrame()
		if err != nil {
			if errors.Is(err, protocol.ErrFrameTooLong) {
				logger.Warn("oversized frame discarded", "conn", c.ID)
				if !reg.Submit(Event{Type: EventFrameTooLong, Client: c}) {
					return
				}
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				logger.Debug("connection closed", "conn", c.ID)
			} else {
				logger.Warn("read failed", "conn", c.ID, "error", err)
			}
			reg.Submit(Event{Type: EventDisconnect, Client: c})
			return
		}

		cmd, ok := protocol.Parse(line)
		if !ok {
			// No colon: not a command.
			continue
		}
		if !reg.Submit(Event{Type: EventCommand, Client: c, Command: cmd}) {
			return
		}
	}
}
