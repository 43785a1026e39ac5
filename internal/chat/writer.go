package chat

import (
	"log/slog"
	"time"
)

// StartOutboundWriter drains c.Out onto the transport until the registry
// closes Out. The returned channel is closed when the writer has exited.
func StartOutboundWriter(c *Client, timeout time.Duration, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for frame := range c.Out {
			if timeout > 0 {
				_ = c.Transport.SetWriteDeadline(time.Now().Add(timeout))
			}
			if err := c.Transport.WriteFrame(frame); err != nil {
				// Best-effort. Closing the transport makes the reader
				// report the disconnect.
				logger.Warn("write failed", "conn", c.ID, "error", err)
				_ = c.Transport.Close()
				for range c.Out {
				}
				return
			}
		}
	}()
	return done
}
