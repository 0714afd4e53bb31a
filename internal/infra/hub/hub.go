package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"delta_stream/internal/domain"

	"github.com/gorilla/websocket"
)

// Conn wraps one client websocket. Writes are serialized by a mutex; a
// failed write marks the connection dead so later sends are skipped instead
// of retried.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
	onClose func()
}

func newConn(ws *websocket.Conn, onClose func()) *Conn {
	c := &Conn{ws: ws, onClose: onClose}
	go c.readLoop()
	return c
}

// readLoop discards inbound frames; clients only listen on these sockets.
// It exists to observe the close handshake.
func (c *Conn) readLoop() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.Close()
			return
		}
	}
}

// Writable reports whether a send can be attempted.
func (c *Conn) Writable() bool {
	return c != nil && !c.closed.Load()
}

// SendJSON writes one JSON message. Returns domain.ErrSocketNotReady when
// the connection is already closed.
func (c *Conn) SendJSON(v any) error {
	if !c.Writable() {
		return domain.ErrSocketNotReady
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(v); err != nil {
		c.Close()
		return err
	}
	return nil
}

// Close tears the socket down and unregisters it. Idempotent.
func (c *Conn) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose()
	}
}

// UserConns is a userID-keyed connection registry. A second connection for
// the same user replaces (and closes) the previous one.
type UserConns struct {
	name    string
	mu      sync.RWMutex
	conns   map[string]*Conn
	onCount func(delta int32)
}

// NewUserConns creates a named registry; onCount (optional) tracks the
// connection gauge.
func NewUserConns(name string, onCount func(delta int32)) *UserConns {
	return &UserConns{
		name:    name,
		conns:   make(map[string]*Conn),
		onCount: onCount,
	}
}

// Attach registers a freshly upgraded socket for a user.
func (r *UserConns) Attach(userID string, ws *websocket.Conn) *Conn {
	var conn *Conn
	conn = newConn(ws, func() {
		r.mu.Lock()
		if r.conns[userID] == conn {
			delete(r.conns, userID)
			if r.onCount != nil {
				r.onCount(-1)
			}
		}
		r.mu.Unlock()
		slog.Info("websocket closed", slog.String("registry", r.name), slog.String("user", userID))
	})

	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	// A replaced conn's close callback sees a different registered conn and
	// skips its decrement, so only a genuinely new user moves the gauge.
	if prev == nil && r.onCount != nil {
		r.onCount(1)
	}
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	slog.Info("websocket connected", slog.String("registry", r.name), slog.String("user", userID))
	return conn
}

// Get returns the live socket for a user.
func (r *UserConns) Get(userID string) (domain.Socket, bool) {
	r.mu.RLock()
	conn, ok := r.conns[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return conn, true
}

// Each visits every registered socket.
func (r *UserConns) Each(fn func(userID string, s domain.Socket)) {
	r.mu.RLock()
	snapshot := make(map[string]*Conn, len(r.conns))
	for id, c := range r.conns {
		snapshot[id] = c
	}
	r.mu.RUnlock()

	for id, c := range snapshot {
		fn(id, c)
	}
}

// CloseUser closes and removes one user's socket if present.
func (r *UserConns) CloseUser(userID string) bool {
	r.mu.RLock()
	conn, ok := r.conns[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	conn.Close()
	return true
}

// Len returns the number of live sockets.
func (r *UserConns) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ConnSet is the anonymous order-tracking connection set.
type ConnSet struct {
	mu      sync.RWMutex
	conns   map[*Conn]struct{}
	onCount func(delta int32)
}

// NewConnSet creates an empty set; onCount (optional) tracks the gauge.
func NewConnSet(onCount func(delta int32)) *ConnSet {
	return &ConnSet{
		conns:   make(map[*Conn]struct{}),
		onCount: onCount,
	}
}

// Attach registers a freshly upgraded anonymous socket.
func (s *ConnSet) Attach(ws *websocket.Conn) *Conn {
	var conn *Conn
	conn = newConn(ws, func() {
		s.mu.Lock()
		if _, ok := s.conns[conn]; ok {
			delete(s.conns, conn)
			if s.onCount != nil {
				s.onCount(-1)
			}
		}
		s.mu.Unlock()
	})

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	if s.onCount != nil {
		s.onCount(1)
	}
	s.mu.Unlock()
	return conn
}

// Each visits every socket in the set.
func (s *ConnSet) Each(fn func(sock domain.Socket)) {
	s.mu.RLock()
	snapshot := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		snapshot = append(snapshot, c)
	}
	s.mu.RUnlock()

	for _, c := range snapshot {
		fn(c)
	}
}

// CloseAll closes every socket in the set.
func (s *ConnSet) CloseAll() {
	s.Each(func(sock domain.Socket) {
		if c, ok := sock.(*Conn); ok {
			c.Close()
		}
	})
}

// Len returns the number of live sockets.
func (s *ConnSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Hub groups the three connection registries owned by the server.
type Hub struct {
	Users         *UserConns
	Positions     *UserConns
	OrderTracking *ConnSet
}

// NewHub creates the registries with gauge callbacks.
func NewHub(userGauge, positionGauge, trackingGauge func(delta int32)) *Hub {
	return &Hub{
		Users:         NewUserConns("user", userGauge),
		Positions:     NewUserConns("position", positionGauge),
		OrderTracking: NewConnSet(trackingGauge),
	}
}
