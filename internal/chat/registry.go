package chat

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/andy6609/chat-relay/internal/protocol"
)

// Registry is the single goroutine that owns every connection and the
// Directory. All commands, broadcasts, admissions and removals run inside
// Run, one event at a time.
type Registry struct {
	cfg      Config
	events   chan Event
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
	metrics  *Metrics

	// Owned by the Run goroutine.
	dir     *Directory
	clients map[*Client]struct{}
}

func NewRegistry(cfg Config, logger *slog.Logger, metrics *Metrics) *Registry {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Registry{
		cfg:     cfg,
		events:  make(chan Event, cfg.EventBuffer),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		logger:  logger,
		metrics: metrics,
		dir:     NewDirectory(),
		clients: make(map[*Client]struct{}),
	}
}

// Submit queues an event for Run. It returns false once the registry has
// been stopped; it never blocks past that point.
func (r *Registry) Submit(ev Event) bool {
	select {
	case <-r.stopCh:
		return false
	default:
	}
	select {
	case r.events <- ev:
		return true
	case <-r.stopCh:
		return false
	}
}

// Stop signals the Run loop to exit. Safe to call more than once.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Wait blocks until the Run loop has completely finished.
func (r *Registry) Wait() {
	<-r.doneCh
}

// Done is closed when Run has returned.
func (r *Registry) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Registry) Run() {
	defer close(r.doneCh)
	defer r.shutdown()

	for {
		select {
		case ev := <-r.events:
			start := time.Now()
			eventType := ""

			switch ev.Type {
			case EventConnect:
				eventType = "connect"
				r.handleConnect(ev)
			case EventDisconnect:
				eventType = "disconnect"
				r.handleDisconnect(ev)
			case EventCommand:
				eventType = commandLabel(ev.Command.Type)
				r.handleCommand(ev.Client, ev.Command)
			case EventFrameTooLong:
				eventType = "frame_too_long"
				if r.connected(ev.Client) {
					r.send(ev.Client, protocol.System(noticeTooLong))
				}
			}
			r.metrics.ConnectedClients.Set(float64(len(r.clients)))

			r.metrics.EventsTotal.WithLabelValues(eventType).Inc()
			r.metrics.EventProcessingDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
		case <-r.stopCh:
			return
		}
	}
}

func (r *Registry) handleConnect(ev Event) {
	defer func() {
		if ev.ReplyChan != nil {
			close(ev.ReplyChan)
		}
	}()

	if len(r.clients) >= r.cfg.MaxClients {
		r.metrics.RejectedConnections.Inc()
		r.logger.Warn("client limit reached, connection rejected",
			"conn", ev.Client.ID, "max_clients", r.cfg.MaxClients)
		if ev.ReplyChan != nil {
			ev.ReplyChan <- ErrServerFull
		}
		return
	}

	r.clients[ev.Client] = struct{}{}
	r.logger.Info("client connected", "conn", ev.Client.ID, "clients", len(r.clients))
	r.send(ev.Client, protocol.System(noticePrompt))

	if ev.ReplyChan != nil {
		ev.ReplyChan <- nil
	}
}

// handleDisconnect runs leave semantics and forgets the client. Repeated
// disconnects for the same client are ignored.
func (r *Registry) handleDisconnect(ev Event) {
	c := ev.Client
	if !r.connected(c) {
		return
	}
	name, named := r.dir.Name(c)
	r.leaveRoom(c)
	r.dir.Remove(c)
	delete(r.clients, c)

	// Closing Out stops the writer goroutine gracefully.
	close(c.Out)

	if named {
		r.logger.Info("client disconnected", "conn", c.ID, "name", name)
	} else {
		r.logger.Info("client disconnected", "conn", c.ID)
	}
}

func (r *Registry) connected(c *Client) bool {
	if c == nil {
		return false
	}
	_, ok := r.clients[c]
	return ok
}

// shutdown closes every remaining connection once Run stops.
func (r *Registry) shutdown() {
	for c := range r.clients {
		close(c.Out)
		if c.Transport != nil {
			_ = c.Transport.Close()
		}
		delete(r.clients, c)
	}
	r.metrics.ConnectedClients.Set(0)
}

func commandLabel(t protocol.Type) string {
	if !t.Known() {
		return "unknown"
	}
	return strings.ToLower(string(t))
}
