// Package inspect serves a live view of the reactive graph over HTTP:
// a JSON snapshot of known nodes, aggregate counters, and a WebSocket
// stream of runtime events.
//
// The inspector is a development tool. Events are delivered to clients
// synchronously from the goroutine running the graph, so a slow client
// slows the graph down.
package inspect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ripple-dev/ripple/pkg/metrics"
	"github.com/ripple-dev/ripple/pkg/ripple"
)

// EventType classifies messages on the WebSocket stream.
type EventType string

const (
	EventNodeCreated    EventType = "node_created"
	EventNodeDisposed   EventType = "node_disposed"
	EventSignalWrite    EventType = "signal_write"
	EventComputationRan EventType = "computation_ran"
	EventBatchCommitted EventType = "batch_committed"
	EventErrorRouted    EventType = "error_routed"
)

// Event is sent to WebSocket clients as JSON.
type Event struct {
	Type       EventType  `json:"type"`
	Node       *GraphNode `json:"node,omitempty"`
	OldValue   string     `json:"old_value,omitempty"`
	NewValue   string     `json:"new_value,omitempty"`
	DurationUs int64      `json:"duration_us,omitempty"`
	Staged     int        `json:"staged,omitempty"`
	Error      string     `json:"error,omitempty"`
	Handled    bool       `json:"handled,omitempty"`
}

// GraphNode is one node in the graph snapshot.
type GraphNode struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind"`
	ParentID  uint64 `json:"parent_id,omitempty"`
	Runs      int64  `json:"runs,omitempty"`
	Writes    int64  `json:"writes,omitempty"`
	LastRunUs int64  `json:"last_run_us,omitempty"`
}

// Config configures the inspector server.
type Config struct {
	// Logger for connection handling.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Collector aggregates counters for /api/stats. If nil a private
	// collector is created.
	Collector *metrics.Collector

	// MaxValueLen bounds stringified signal values in stream events
	// (default: 128).
	MaxValueLen int
}

// Option configures the inspector server.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCollector sets the stats collector backing /api/stats.
func WithCollector(collector *metrics.Collector) Option {
	return func(c *Config) {
		c.Collector = collector
	}
}

// WithMaxValueLen sets the cap on stringified values in stream events.
func WithMaxValueLen(n int) Option {
	return func(c *Config) {
		c.MaxValueLen = n
	}
}

// defaultConfig returns the default inspector configuration.
func defaultConfig() Config {
	return Config{
		Logger:      nil,
		Collector:   nil,
		MaxValueLen: 128,
	}
}

// Server is a runtime hook that mirrors graph activity into an
// HTTP-servable model. Attach it, then mount Handler somewhere.
type Server struct {
	ripple.BaseHook

	logger      *slog.Logger
	stats       *metrics.Collector
	maxValueLen int

	// nodes is event-sourced from hook deliveries. Result signals that
	// never announce themselves get upserted on their first write.
	mu    sync.RWMutex
	nodes map[uint64]*GraphNode

	// clientsMu also serializes WebSocket writes: broadcast holds it
	// exclusively for the whole write loop.
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
	upgrader  websocket.Upgrader
}

var _ ripple.Hook = (*Server)(nil)

// New creates an inspector server.
//
// Example:
//
//	ins := inspect.New()
//	remove := ins.Attach()
//	defer remove()
//	go http.ListenAndServe("localhost:9000", ins.Handler())
func New(opts ...Option) *Server {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stats := config.Collector
	if stats == nil {
		stats = metrics.NewCollector()
	}

	return &Server{
		BaseHook:    ripple.NewBaseHook("inspector"),
		logger:      logger,
		stats:       stats,
		maxValueLen: config.MaxValueLen,
		nodes:       make(map[uint64]*GraphNode),
		clients:     make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tooling
			},
		},
	}
}

// Attach registers the server as a runtime hook and returns the remove
// function.
func (s *Server) Attach() (remove func()) {
	return ripple.AddHook(s)
}

// Stats returns the aggregate counters collected so far.
func (s *Server) Stats() metrics.Stats {
	return s.stats.Snapshot()
}

// NodeCreated implements ripple.Hook.
func (s *Server) NodeCreated(info ripple.NodeInfo) {
	s.stats.NodeCreated(info)
	node := s.touch(info, nil)
	s.broadcast(Event{Type: EventNodeCreated, Node: node})
}

// NodeDisposed implements ripple.Hook.
func (s *Server) NodeDisposed(info ripple.NodeInfo) {
	s.stats.NodeDisposed(info)

	s.mu.Lock()
	delete(s.nodes, info.ID)
	// Result signals ride on their computation's lifetime.
	for id, n := range s.nodes {
		if n.ParentID == info.ID && n.Kind == string(ripple.KindSignal) {
			delete(s.nodes, id)
		}
	}
	s.mu.Unlock()

	s.broadcast(Event{Type: EventNodeDisposed, Node: &GraphNode{
		ID:       info.ID,
		Name:     info.Name,
		Kind:     string(info.Kind),
		ParentID: info.ParentID,
	}})
}

// SignalWrite implements ripple.Hook.
func (s *Server) SignalWrite(info ripple.NodeInfo, oldValue, newValue any) {
	s.stats.SignalWrite(info, oldValue, newValue)
	node := s.touch(info, func(n *GraphNode) { n.Writes++ })
	s.broadcast(Event{
		Type:     EventSignalWrite,
		Node:     node,
		OldValue: s.stringify(oldValue),
		NewValue: s.stringify(newValue),
	})
}

// ComputationRan implements ripple.Hook.
func (s *Server) ComputationRan(info ripple.NodeInfo, d time.Duration) {
	s.stats.ComputationRan(info, d)
	node := s.touch(info, func(n *GraphNode) {
		n.Runs++
		n.LastRunUs = d.Microseconds()
	})
	s.broadcast(Event{Type: EventComputationRan, Node: node, DurationUs: d.Microseconds()})
}

// BatchCommitted implements ripple.Hook.
func (s *Server) BatchCommitted(staged int, d time.Duration) {
	s.stats.BatchCommitted(staged, d)
	s.broadcast(Event{Type: EventBatchCommitted, Staged: staged, DurationUs: d.Microseconds()})
}

// ErrorRouted implements ripple.Hook.
func (s *Server) ErrorRouted(info ripple.NodeInfo, err error, handled bool) {
	s.stats.ErrorRouted(info, err, handled)
	node := s.touch(info, nil)
	s.broadcast(Event{Type: EventErrorRouted, Node: node, Error: err.Error(), Handled: handled})
}

// touch upserts the node for info, applies mutate under the lock, and
// returns a snapshot safe to hand to the encoder.
func (s *Server) touch(info ripple.NodeInfo, mutate func(*GraphNode)) *GraphNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[info.ID]
	if !ok {
		n = &GraphNode{
			ID:       info.ID,
			Name:     info.Name,
			Kind:     string(info.Kind),
			ParentID: info.ParentID,
		}
		s.nodes[info.ID] = n
	}
	if mutate != nil {
		mutate(n)
	}
	snapshot := *n
	return &snapshot
}

// stringify renders a signal value for the event stream, truncated to
// the configured cap.
func (s *Server) stringify(v any) string {
	str := fmt.Sprintf("%v", v)
	if len(str) > s.maxValueLen {
		str = str[:s.maxValueLen] + "..."
	}
	return str
}

// handleWebSocket upgrades the connection and streams events until the
// client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("inspector: websocket upgrade failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	s.logger.Debug("inspector: client connected", "clients", s.ClientCount())

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	conn.Close()
	s.logger.Debug("inspector: client disconnected", "clients", s.ClientCount())
}

// broadcast sends an event to all connected clients, dropping the ones
// whose write fails.
func (s *Server) broadcast(ev Event) {
	s.clientsMu.RLock()
	empty := len(s.clients) == 0
	s.clientsMu.RUnlock()
	if empty {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(s.clients, client)
			client.Close()
		}
	}
}

// ClientCount returns the number of connected stream clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Close closes all client connections. The hook stays attached until
// its remove function is called.
func (s *Server) Close() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
}
