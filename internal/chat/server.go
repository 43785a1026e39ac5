package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/andy6609/chat-relay/internal/protocol"
	"github.com/andy6609/chat-relay/internal/transport"
)

type Server struct {
	cfg      Config
	logger   *slog.Logger
	reg      *Registry
	framer   protocol.Framer
	listener net.Listener
	wsServer *http.Server

	// mu guards stopping so no goroutine joins wg once Stop is waiting on it.
	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

func NewServer(cfg Config, logger *slog.Logger, metrics *Metrics) (*Server, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	framer, err := protocol.NewFramer(cfg.Framing, cfg.MaxLineBytes)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		reg:    NewRegistry(cfg, logger, metrics),
		framer: framer,
	}, nil
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	if s.cfg.WebSocketAddr != "" {
		wsln, err := net.Listen("tcp", s.cfg.WebSocketAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen websocket %s: %w", s.cfg.WebSocketAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/ws", s.WebSocketHandler())
		s.wsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := s.wsServer.Serve(wsln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("websocket gateway stopped", "error", err)
			}
		}()
		s.logger.Info("websocket gateway started", "addr", wsln.Addr().String())
	}

	go s.reg.Run()
	s.wg.Add(1)
	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String(),
		"max_clients", s.cfg.MaxClients, "framing", s.cfg.Framing)
	return nil
}

// Addr is the bound chat address, valid after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Stop() {
	if s.listener == nil {
		return
	}
	s.logger.Info("shutting down")

	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.listener.Close()
	if s.wsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.wsServer.Shutdown(ctx)
		cancel()
	}

	s.reg.Stop()
	s.reg.Wait()
	s.wg.Wait()

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// Listener closed: normal shutdown.
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.admit(transport.NewStream(conn, s.framer))
	}
}

// admit asks the registry for a slot. A rejected transport is closed before
// anything is written to it.
func (s *Server) admit(t transport.Conn) {
	c := NewClient(t, s.cfg.OutboundBuffer)
	reply := make(chan error, 1)
	if !s.reg.Submit(Event{Type: EventConnect, Client: c, ReplyChan: reply}) {
		_ = t.Close()
		return
	}

	select {
	case err := <-reply:
		if err != nil {
			s.logger.Warn("connection rejected", "addr", t.RemoteAddr(), "error", err)
			_ = t.Close()
			return
		}
	case <-s.reg.Done():
		_ = t.Close()
		return
	}

	s.logger.Debug("connection admitted", "conn", c.ID, "addr", t.RemoteAddr())
	if !s.track() {
		// Stop closes the client through the registry.
		return
	}
	go func() {
		defer s.wg.Done()
		HandleSession(c, s.reg, s.logger)
	}()
}

// track reserves a wg slot unless Stop has begun.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.wg.Add(1)
	return true
}
