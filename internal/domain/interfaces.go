package domain

import "context"

// Socket is a live client connection as seen by the engines: the engines
// check writability and send; they never open, own, or close sockets.
type Socket interface {
	Writable() bool
	SendJSON(v any) error
}

// SocketRegistry exposes a per-user connection map owned by the hub.
type SocketRegistry interface {
	Get(userID string) (Socket, bool)
	Each(fn func(userID string, s Socket))
}

// SocketSet exposes the anonymous connection set owned by the hub.
type SocketSet interface {
	Each(fn func(s Socket))
}

// PositionSource is the external, read-only position store.
type PositionSource interface {
	QueryByUser(ctx context.Context, userID string) ([]Position, error)
}

// FundSource is the external, read-only fund store.
type FundSource interface {
	AvailableBalance(ctx context.Context, userID string) (float64, error)
}

// OptionQuoter looks up an option snapshot by (currency, expiry date, symbol).
type OptionQuoter interface {
	Quote(currency, date, symbol string) (SymbolData, bool)
}

// OptionSink receives option chain snapshots from an ingestion feed.
type OptionSink interface {
	Put(currency, date, symbol string, data SymbolData)
}
