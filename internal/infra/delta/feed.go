package delta

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"delta_stream/internal/domain"
	"delta_stream/internal/event"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	pingInterval     = 20 * time.Second
	readTimeout      = 60 * time.Second
	baseDelay        = 5 * time.Second
)

// Feed streams futures ticker snapshots from the Delta exchange websocket
// into the broadcaster inbox. It reconnects forever until its context ends.
type Feed struct {
	url       string
	inbox     chan<- *event.PriceTick
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewFeed factory
func NewFeed(url string, inbox chan<- *event.PriceTick) *Feed {
	return &Feed{
		url:   url,
		inbox: inbox,
	}
}

func (f *Feed) Connect(ctx context.Context) error {
	ctx, f.cancel = context.WithCancel(ctx)
	f.wg.Add(1)
	go f.connectionLoop(ctx)
	return nil
}

func (f *Feed) connectionLoop(ctx context.Context) {
	defer f.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.connect(ctx); err != nil {
			slog.Warn("delta feed connection failed", slog.Any("error", err))
			time.Sleep(baseDelay)
		} else {
			f.readLoop(ctx)
		}
	}
}

func (f *Feed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.conn = conn
	f.connected = true
	f.mu.Unlock()

	if err := f.subscribe(); err != nil {
		f.closeConnection()
		return err
	}

	go f.pingLoop(ctx)
	slog.Info("delta feed connected")
	return nil
}

type subscribePayload struct {
	Type    string `json:"type"`
	Payload struct {
		Channels []subscribeChannel `json:"channels"`
	} `json:"payload"`
}

type subscribeChannel struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

func (f *Feed) subscribe() error {
	req := subscribePayload{Type: "subscribe"}
	req.Payload.Channels = []subscribeChannel{
		{Name: "v2/ticker", Symbols: []string{"all"}},
	}
	b, _ := json.Marshal(req)
	return f.threadSafeWrite(websocket.TextMessage, b)
}

func (f *Feed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.threadSafeWrite(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *Feed) threadSafeWrite(msgType int, data []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.conn == nil {
		return fmt.Errorf("no conn")
	}
	return f.conn.WriteMessage(msgType, data)
}

func (f *Feed) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		f.mu.RLock()
		if f.conn == nil {
			f.mu.RUnlock()
			return
		}
		f.conn.SetReadDeadline(time.Now().Add(readTimeout))
		f.mu.RUnlock()

		_, msg, err := f.conn.ReadMessage()
		if err != nil {
			f.closeConnection()
			return
		}
		f.handleMessage(msg)
	}
}

func (f *Feed) handleMessage(msg []byte) {
	var payload map[string]any
	if err := json.Unmarshal(msg, &payload); err != nil {
		return
	}
	if payload["type"] != "v2/ticker" {
		return
	}
	symbol, _ := payload["symbol"].(string)
	if symbol == "" {
		return
	}

	tick := event.AcquirePriceTick()
	tick.RawSymbol = symbol
	tick.Data = domain.SymbolData(payload)
	select {
	case f.inbox <- tick:
	default:
		// Inbox full: drop the oldest intent, never block the read loop.
		event.ReleasePriceTick(tick)
	}
}

func (f *Feed) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func (f *Feed) closeConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connected = false
}

func (f *Feed) Disconnect() {
	if f.cancel != nil {
		f.cancel()
	}
	f.closeConnection()
	f.wg.Wait()
}
