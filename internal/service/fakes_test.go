package service

import (
	"context"
	"sync"

	"delta_stream/internal/domain"
)

// fakeSocket records sent messages for assertion.
type fakeSocket struct {
	mu       sync.Mutex
	writable bool
	failSend bool
	sent     []any
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{writable: true}
}

func (s *fakeSocket) Writable() bool { return s.writable }

func (s *fakeSocket) SendJSON(v any) error {
	if s.failSend {
		return domain.ErrSocketNotReady
	}
	s.mu.Lock()
	s.sent = append(s.sent, v)
	s.mu.Unlock()
	return nil
}

func (s *fakeSocket) messages() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, len(s.sent))
	copy(out, s.sent)
	return out
}

// fakeConns is an in-memory SocketRegistry.
type fakeConns struct {
	socks map[string]*fakeSocket
}

func newFakeConns() *fakeConns {
	return &fakeConns{socks: make(map[string]*fakeSocket)}
}

func (c *fakeConns) add(userID string) *fakeSocket {
	s := newFakeSocket()
	c.socks[userID] = s
	return s
}

func (c *fakeConns) Get(userID string) (domain.Socket, bool) {
	s, ok := c.socks[userID]
	return s, ok
}

func (c *fakeConns) Each(fn func(userID string, s domain.Socket)) {
	for id, s := range c.socks {
		fn(id, s)
	}
}

// fakeConnSet is an in-memory SocketSet.
type fakeConnSet struct {
	socks []*fakeSocket
}

func (c *fakeConnSet) add() *fakeSocket {
	s := newFakeSocket()
	c.socks = append(c.socks, s)
	return s
}

func (c *fakeConnSet) Each(fn func(s domain.Socket)) {
	for _, s := range c.socks {
		fn(s)
	}
}

// fakePositions is an in-memory PositionSource.
type fakePositions struct {
	rows map[string][]domain.Position
	err  error
}

func (p *fakePositions) QueryByUser(_ context.Context, userID string) ([]domain.Position, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.rows[userID], nil
}

// fakeFunds is an in-memory FundSource.
type fakeFunds struct {
	balances map[string]float64
}

func (f *fakeFunds) AvailableBalance(_ context.Context, userID string) (float64, error) {
	return f.balances[userID], nil
}
