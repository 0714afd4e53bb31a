package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"delta_stream/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestStore_SaveAndQueryPositions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &domain.Position{
		UserID:       "u1",
		AssetSymbol:  "BTCUSDT",
		Status:       domain.PositionOpen,
		EntryPrice:   50000,
		Quantity:     0.5,
		PositionType: domain.PositionLong,
		OpenedAt:     time.Now(),
	}
	if err := store.SavePosition(p); err != nil {
		t.Fatalf("SavePosition failed: %v", err)
	}
	if p.PositionID == "" || p.OrderID == "" {
		t.Error("Identifiers should be assigned on save")
	}

	rows, err := store.QueryByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("QueryByUser failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 position, got %d", len(rows))
	}
	if rows[0].AssetSymbol != "BTCUSDT" || rows[0].EntryPrice != 50000 {
		t.Errorf("Unexpected row %+v", rows[0])
	}

	rows, err = store.QueryByUser(ctx, "other")
	if err != nil {
		t.Fatalf("QueryByUser failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Other user should have no positions, got %d", len(rows))
	}
}

func TestStore_QueryOrdersByOpenedAt(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"second", "first"} {
		p := &domain.Position{
			PositionID:  id,
			UserID:      "u1",
			AssetSymbol: "BTCUSDT",
			Status:      domain.PositionOpen,
			OpenedAt:    base.Add(time.Duration(1-i) * time.Hour),
		}
		if err := store.SavePosition(p); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := store.QueryByUser(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].PositionID != "first" || rows[1].PositionID != "second" {
		t.Errorf("Expected opened_at ordering, got %s then %s", rows[0].PositionID, rows[1].PositionID)
	}
}

func TestStore_AvailableBalance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Missing fund record is zero, not an error.
	balance, err := store.AvailableBalance(ctx, "ghost")
	if err != nil {
		t.Fatalf("Missing fund should not error: %v", err)
	}
	if balance != 0 {
		t.Errorf("Expected 0, got %v", balance)
	}

	if err := store.SaveFund("u1", 1234.56); err != nil {
		t.Fatalf("SaveFund failed: %v", err)
	}
	balance, err = store.AvailableBalance(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if balance != 1234.56 {
		t.Errorf("Expected 1234.56, got %v", balance)
	}
}

func TestStore_Ping(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
