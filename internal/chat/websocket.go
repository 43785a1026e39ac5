package chat

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/andy6609/chat-relay/internal/transport"
)

// WebSocketHandler upgrades HTTP requests and feeds them to the same
// registry as TCP clients.
func (s *Server) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Hijacked connections outlive http.Server.Shutdown, so the
		// handler holds its own slot until admission is settled.
		if !s.track() {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		defer s.wg.Done()

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			// Upgrade has already replied with an HTTP error.
			s.logger.Warn("websocket upgrade failed", "addr", req.RemoteAddr, "error", err)
			return
		}
		s.admit(transport.NewWebSocket(conn, s.cfg.MaxLineBytes))
	})
}
