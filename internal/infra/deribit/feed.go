package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"delta_stream/internal/domain"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
	baseDelay        = 5 * time.Second
	batchSize        = 200 // channels per subscribe request
)

// ChainFeed streams option ticker snapshots for one currency into the
// option chain store. Instrument names are split into (currency, expiry)
// on arrival so valuation lookups stay O(1).
type ChainFeed struct {
	currency string
	url      string
	symbols  []string
	sink     domain.OptionSink

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewChainFeed factory. symbols is the instrument list for the currency,
// typically from FetchInstruments.
func NewChainFeed(currency, url string, symbols []string, sink domain.OptionSink) *ChainFeed {
	return &ChainFeed{
		currency: currency,
		url:      url,
		symbols:  symbols,
		sink:     sink,
	}
}

func (f *ChainFeed) Connect(ctx context.Context) error {
	ctx, f.cancel = context.WithCancel(ctx)
	f.wg.Add(1)
	go f.connectionLoop(ctx)
	return nil
}

func (f *ChainFeed) connectionLoop(ctx context.Context) {
	defer f.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.connect(ctx); err != nil {
			slog.Warn("option chain feed connection failed",
				slog.String("currency", f.currency), slog.Any("error", err))
			time.Sleep(baseDelay)
		} else {
			f.readLoop(ctx)
		}
	}
}

func (f *ChainFeed) connect(ctx context.Context) error {
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

	slog.Info("option chain feed connected",
		slog.String("currency", f.currency), slog.Int("symbols", len(f.symbols)))
	return nil
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

func (f *ChainFeed) subscribe() error {
	for start := 0; start < len(f.symbols); start += batchSize {
		stop := start + batchSize
		if stop > len(f.symbols) {
			stop = len(f.symbols)
		}
		channels := make([]string, 0, stop-start)
		for _, sym := range f.symbols[start:stop] {
			channels = append(channels, "ticker."+sym+".100ms")
		}
		req := rpcRequest{
			JSONRPC: "2.0",
			Method:  "public/subscribe",
			Params:  map[string]any{"channels": channels},
		}
		b, _ := json.Marshal(req)
		if err := f.threadSafeWrite(websocket.TextMessage, b); err != nil {
			return err
		}
	}
	return nil
}

func (f *ChainFeed) threadSafeWrite(msgType int, data []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.conn == nil {
		return fmt.Errorf("no conn")
	}
	return f.conn.WriteMessage(msgType, data)
}

func (f *ChainFeed) readLoop(ctx context.Context) {
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

func (f *ChainFeed) handleMessage(msg []byte) {
	var payload struct {
		Method string `json:"method"`
		Params struct {
			Channel string         `json:"channel"`
			Data    map[string]any `json:"data"`
		} `json:"params"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		return
	}
	if payload.Method != "subscription" || payload.Params.Data == nil {
		return
	}

	data := domain.SymbolData(payload.Params.Data)
	symbol := data.String("instrument_name")
	if symbol == "" {
		return
	}
	currency, date := domain.SplitCurrencyAndDate(symbol)
	if currency == "" || date == "" {
		return
	}
	f.sink.Put(currency, date, symbol, data)
}

func (f *ChainFeed) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func (f *ChainFeed) closeConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connected = false
}

func (f *ChainFeed) Disconnect() {
	if f.cancel != nil {
		f.cancel()
	}
	f.closeConnection()
	f.wg.Wait()
}
