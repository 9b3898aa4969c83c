package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/pkg/arenadto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Handler consumes inbound frames and connection closes.
type Handler interface {
	Handle(conn, typ string, payload json.RawMessage)
	Malformed(conn string)
	Disconnect(conn string)
}

// Hub accepts websocket connections and fans events out to them. Emit and
// EmitGroup never block: each connection has a bounded queue and overflow is
// dropped.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]*client
	groups  map[string]map[string]struct{}
	handler Handler

	sendBuffer     int
	readLimit      int64
	pingInterval   time.Duration
	writeTimeout   time.Duration
	originPatterns []string
}

type Option func(*Hub)

func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) { h.pingInterval = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithOriginPatterns allows cross-origin browser clients matching the patterns.
func WithOriginPatterns(p ...string) Option {
	return func(h *Hub) { h.originPatterns = append(h.originPatterns, p...) }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		conns:        make(map[string]*client),
		groups:       make(map[string]map[string]struct{}),
		sendBuffer:   64,
		readLimit:    64 << 10,
		pingInterval: 30 * time.Second,
		writeTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Attach sets the inbound handler. It must be called before serving.
func (h *Hub) Attach(handler Handler) { h.handler = handler }

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  h.originPatterns,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	ws.SetReadLimit(h.readLimit)

	c := &client{id: uuid.NewString(), ws: ws, send: make(chan []byte, h.sendBuffer)}
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	obslog.L().Info("ws_connect", zap.String("conn", c.id), zap.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.writeLoop(ctx, h.writeTimeout) }()
	go func() { defer wg.Done(); c.pingLoop(ctx, h.pingInterval) }()

	c.readLoop(ctx, h.handler)

	cancel()
	wg.Wait()
	h.drop(c)
	_ = ws.Close(websocket.StatusNormalClosure, "")
}

// drop unregisters c, runs the handler's departure, then clears c from every group.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()

	if h.handler != nil {
		h.handler.Disconnect(c.id)
	}

	h.mu.Lock()
	for g, members := range h.groups {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.groups, g)
		}
	}
	h.mu.Unlock()
	obslog.L().Info("ws_disconnect", zap.String("conn", c.id))
}

func (h *Hub) Emit(conn string, ev arenadto.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		obslog.L().Error("ws_encode_error", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	h.mu.RLock()
	c := h.conns[conn]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(b, ev.Type)
	}
}

func (h *Hub) EmitGroup(group string, ev arenadto.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		obslog.L().Error("ws_encode_error", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	h.mu.RLock()
	targets := make([]*client, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		if c := h.conns[id]; c != nil {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.enqueue(b, ev.Type)
	}
}

func (h *Hub) Join(group, conn string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		return
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]struct{})
	}
	h.groups[group][conn] = struct{}{}
}

func (h *Hub) Members(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) ClearGroup(group string) {
	h.mu.Lock()
	delete(h.groups, group)
	h.mu.Unlock()
}

// Count reports open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close sends a going-away close frame to every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.conns))
	for _, c := range h.conns {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutdown")
	}
}
