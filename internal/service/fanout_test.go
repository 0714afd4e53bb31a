package service

import (
	"testing"

	"delta_stream/internal/domain"
)

var dashboardMajors = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT", "BNBUSDT", "ADAUSDT"}

func TestFanout_ExactMatchCategory(t *testing.T) {
	registry := NewRegistry()
	conns := newFakeConns()
	sock := conns.add("u1")
	registry.Subscribe("u1", "spot", []string{"BTCUSD"})

	f := NewFanout(registry, conns, dashboardMajors)

	// Subscribe cross-registers BTCUSD under futures too, so one tick lands
	// twice: once per matching category.
	sent := f.Broadcast("BTCUSD", "BTCUSDT", domain.SymbolData{"mark_price": 50000.0})
	if sent != 2 {
		t.Errorf("Expected 2 messages (spot + futures), got %d", sent)
	}

	msgs := sock.messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages on socket, got %d", len(msgs))
	}
	for _, m := range msgs {
		upd, ok := m.(domain.SymbolUpdate)
		if !ok {
			t.Fatalf("Unexpected message type %T", m)
		}
		if upd.Symbol != "BTCUSD" {
			t.Errorf("Outbound symbol should be exchange-native, got %q", upd.Symbol)
		}
	}
}

func TestFanout_NoInterestedUsers(t *testing.T) {
	registry := NewRegistry()
	conns := newFakeConns()
	sock := conns.add("u1")
	registry.Subscribe("u1", "spot", []string{"ETHUSD"})

	f := NewFanout(registry, conns, dashboardMajors)

	sent := f.Broadcast("DOGE-PERP", "DOGE-PERP", domain.SymbolData{"mark_price": 0.1})
	if sent != 0 {
		t.Errorf("Expected 0 messages, got %d", sent)
	}
	if len(sock.messages()) != 0 {
		t.Error("Socket should receive nothing")
	}
}

func TestFanout_FuturesWideIgnoresMembership(t *testing.T) {
	registry := NewRegistry()
	conns := newFakeConns()
	sock := conns.add("u1")
	registry.Subscribe("u1", domain.CategoryFuturesSymbol, []string{"ETHUSD"})

	f := NewFanout(registry, conns, dashboardMajors)

	// A futures symbol the user never named still matches the wide category.
	sent := f.Broadcast("SOLUSD", "SOLUSDT", domain.SymbolData{"description": "Solana Perpetual"})
	if sent < 1 {
		t.Fatalf("Wide category should match any futures symbol, sent=%d", sent)
	}

	upd := sock.messages()[0].(domain.SymbolUpdate)
	if upd.Data["description"] != "Solana" {
		t.Errorf("Expected projected description, got %q", upd.Data["description"])
	}
	if _, ok := upd.Data["volume"]; ok {
		t.Error("Wide projection should not carry volume")
	}
}

func TestFanout_DashboardWhitelist(t *testing.T) {
	registry := NewRegistry()
	conns := newFakeConns()
	sock := conns.add("u1")
	registry.Subscribe("u1", domain.CategoryDashboard, []string{"BTCUSD"})

	f := NewFanout(registry, conns, dashboardMajors)

	if sent := f.Broadcast("BTCUSD", "BTCUSDT", domain.SymbolData{"volume": 1.0}); sent == 0 {
		t.Error("Whitelisted major should reach the dashboard category")
	}

	// SHIB is futures-class, so the cross-registered futures category still
	// matches; only the dashboard category must stay silent.
	before := len(sock.messages())
	f.Broadcast("SHIBUSD", "SHIBUSDT", domain.SymbolData{"volume": 1.0})
	for _, m := range sock.messages()[before:] {
		if m.(domain.SymbolUpdate).Category == domain.CategoryDashboard {
			t.Error("Non-whitelisted symbol should not reach the dashboard category")
		}
	}
}

func TestFanout_SkipsNonWritableSockets(t *testing.T) {
	registry := NewRegistry()
	conns := newFakeConns()
	sock := conns.add("u1")
	sock.writable = false
	registry.Subscribe("u1", "spot", []string{"BTCUSD"})

	f := NewFanout(registry, conns, dashboardMajors)

	if sent := f.Broadcast("BTCUSD", "BTCUSDT", domain.SymbolData{}); sent != 0 {
		t.Errorf("Non-writable socket should be skipped, sent=%d", sent)
	}
}
